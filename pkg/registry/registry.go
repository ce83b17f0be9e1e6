// Package registry holds the node-type descriptor table. The registry is
// built once at startup, treated as immutable afterwards, and injected into
// the validator (strict mode), the auto-fixer (required keys and defaults)
// and the execution engine (handlers).
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/botblocks/botblocks/pkg/models"
)

var (
	ErrEmptyNodeType        = errors.New("node type cannot be empty")
	ErrDuplicateNodeType    = errors.New("node type already registered")
	ErrNodeTypeNotFound     = errors.New("node type not registered")
	ErrHandlerNotRegistered = errors.New("node type has no handler")
)

// Handler executes one node against the current run and returns its result.
// Handlers must not panic; the engine treats a returned error as a contained
// branch failure.
type Handler func(ctx context.Context, node models.Node, run *models.ExecutionContext) (models.NodeResult, error)

// Descriptor describes one node type: its category, the config keys it
// requires, the defaults used when those keys are missing, and the handler
// that executes it.
type Descriptor struct {
	Type         string
	Category     models.Category
	RequiredKeys []string
	Defaults     map[string]any
	Handler      Handler
}

// Registry maps node type tags to descriptors.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
	logger      *slog.Logger
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
		logger:      logger.With("module", "registry"),
	}
}

func (r *Registry) Register(desc Descriptor) error {
	if desc.Type == "" {
		return ErrEmptyNodeType
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.descriptors[desc.Type]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeType, desc.Type)
	}

	r.descriptors[desc.Type] = desc
	r.logger.Debug("Registered node type", "type", desc.Type, "category", desc.Category)

	return nil
}

// SetHandler attaches an execution handler to an already registered type.
// The engine installs its handlers here after construction, so descriptors
// can be declared without dragging execution dependencies into this package.
func (r *Registry) SetHandler(nodeType string, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc, exists := r.descriptors[nodeType]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNodeTypeNotFound, nodeType)
	}

	desc.Handler = handler
	r.descriptors[nodeType] = desc

	return nil
}

// Descriptor returns the descriptor for a node type.
func (r *Registry) Descriptor(nodeType string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, exists := r.descriptors[nodeType]

	return desc, exists
}

// Handler returns the execution handler for a node type.
func (r *Registry) Handler(nodeType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, exists := r.descriptors[nodeType]
	if !exists || desc.Handler == nil {
		return nil, false
	}

	return desc.Handler, true
}

// Types returns all registered type tags in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.descriptors))
	for nodeType := range r.descriptors {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}

// Builtin returns a registry preloaded with every built-in node type.
// Handlers are not set; the execution engine installs them via SetHandler.
func Builtin(logger *slog.Logger) *Registry {
	r := New(logger)

	builtins := []Descriptor{
		{
			Type:     models.NodeTypeStart,
			Category: models.CategoryTriggers,
		},
		{
			Type:         models.NodeTypeTriggerCommand,
			Category:     models.CategoryTriggers,
			RequiredKeys: []string{"command"},
			Defaults:     map[string]any{"command": "/start"},
		},
		{
			Type:     models.NodeTypeTriggerMessage,
			Category: models.CategoryTriggers,
		},
		{
			Type:         models.NodeTypeActionSend,
			Category:     models.CategoryActions,
			RequiredKeys: []string{"message"},
			Defaults:     map[string]any{"message": "Bot message"},
		},
		{
			Type:         models.NodeTypeConditionText,
			Category:     models.CategoryConditions,
			RequiredKeys: []string{"pattern"},
			Defaults:     map[string]any{"pattern": ".*"},
		},
		{
			Type:         models.NodeTypeDataVariable,
			Category:     models.CategoryData,
			RequiredKeys: []string{"variableName"},
			Defaults:     map[string]any{"variableName": "variable1"},
		},
		{
			Type:         models.NodeTypeIntegrationHTTP,
			Category:     models.CategoryIntegrations,
			RequiredKeys: []string{"url"},
			Defaults:     map[string]any{"url": "https://api.example.com"},
		},
	}

	for _, desc := range builtins {
		if err := r.Register(desc); err != nil {
			// Builtin types are distinct constants; a failure here is a
			// programming error, not a runtime condition.
			panic(err)
		}
	}

	return r
}
