package validation

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrDocumentInvalid reports that a raw schema document does not have the
// shape of a bot schema at all. It gates imports before the document is
// decoded; defects inside a well-shaped schema are the Validator's job.
var ErrDocumentInvalid = errors.New("document is not a valid bot schema")

//go:embed document.json
var documentSchema string

var compileDocumentSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
})

// ValidateDocument checks a raw JSON document against the bot schema shape.
// The gate is deliberately permissive about per-element required fields:
// those are reported as fixable issues by Validate, not rejected here.
func ValidateDocument(raw []byte) error {
	schema, err := compileDocumentSchema()
	if err != nil {
		return fmt.Errorf("compiling document schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDocumentInvalid, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrDocumentInvalid, strings.Join(details, "; "))
}
