package validation

// Severity distinguishes hard errors from advisory warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Stable machine-readable issue codes. Tests and UI collaborators match on
// these, so they are part of the validator's contract.
const (
	CodeSchemaMissing           = "SCHEMA_MISSING"
	CodeInvalidNodesArray       = "INVALID_NODES_ARRAY"
	CodeInvalidConnectionsArray = "INVALID_CONNECTIONS_ARRAY"
	CodeEmptySchema             = "EMPTY_SCHEMA"
	CodeMissingRequiredField    = "MISSING_REQUIRED_FIELD"
	CodeDuplicateNodeID         = "DUPLICATE_NODE_ID"
	CodeInvalidCategory         = "INVALID_CATEGORY"
	CodeCategoryTypeMismatch    = "CATEGORY_TYPE_MISMATCH"
	CodeInvalidPosition         = "INVALID_POSITION"
	CodeMissingNodeConfig       = "MISSING_NODE_CONFIG"
	CodeMissingCommand          = "MISSING_COMMAND"
	CodeMissingConditionType    = "MISSING_CONDITION_TYPE"
	CodeEmptyMessage            = "EMPTY_MESSAGE"
	CodeMissingVariableName     = "MISSING_VARIABLE_NAME"
	CodeMissingHTTPURL          = "MISSING_HTTP_URL"
	CodeUnknownNodeType         = "UNKNOWN_NODE_TYPE"
	CodeMissingConnectionField  = "MISSING_REQUIRED_CONNECTION_FIELD"
	CodeDuplicateConnectionID   = "DUPLICATE_CONNECTION_ID"
	CodeSourceNodeNotFound      = "SOURCE_NODE_NOT_FOUND"
	CodeTargetNodeNotFound      = "TARGET_NODE_NOT_FOUND"
	CodeUnusualConnection       = "UNUSUAL_CONNECTION"
	CodeSelfConnection          = "SELF_CONNECTION"
	CodeCyclicDependency        = "CYCLIC_DEPENDENCY"
	CodeNoTriggers              = "NO_TRIGGERS"
	CodeNoActions               = "NO_ACTIONS"
	CodeIsolatedNode            = "ISOLATED_NODE"
	CodeUnreachableNode         = "UNREACHABLE_NODE"
	CodeConditionBranchConflict = "CONDITION_BRANCH_CONFLICT"
)

// Issue is one validation finding.
type Issue struct {
	Type         string   `json:"type"`
	Message      string   `json:"message"`
	NodeID       string   `json:"nodeId,omitempty"`
	ConnectionID string   `json:"connectionId,omitempty"`
	Severity     Severity `json:"severity"`
}

// Summary aggregates issue counts for the report consumer.
type Summary struct {
	ErrorCount   int `json:"errorCount"`
	WarningCount int `json:"warningCount"`
	TotalIssues  int `json:"totalIssues"`
}

// Result is the full validation report. Errors make the schema unusable for
// execution; warnings are advisory and leave it executable but degraded.
type Result struct {
	IsValid     bool    `json:"isValid"`
	HasWarnings bool    `json:"hasWarnings"`
	Errors      []Issue `json:"errors"`
	Warnings    []Issue `json:"warnings"`
	Summary     Summary `json:"summary"`
}
