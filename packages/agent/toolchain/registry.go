package toolchain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/arborly/reagent/packages/agent/model"
)

// Func is the callable a registered tool invokes with its parsed input.
// Any Go panic or returned error during a call is folded by the Dispatcher
// into an error-shaped ToolResponse; Func itself should return one only for
// transport-level failures the dispatcher must still be told about.
type Func func(ctx context.Context, input map[string]any) (ToolResponse, error)

type registeredTool struct {
	schema model.ToolSchema
	schemaV  *jsonschema.Schema
	fn     Func
}

// Registry maps unique tool names to callables plus the ToolSchema describing
// them to the model. Duplicate Register calls overwrite silently — last
// write wins, a caller mistake to avoid rather than an error to report, per
// spec.md §4.4.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registeredTool)}
}

// Register adds a tool under name. parameters must be a JSON-Schema object
// whose top level is {type:"object", properties, required?}; an invalid
// schema is a registration error, not deferred to first-call time.
func (r *Registry) Register(name, description string, parameters map[string]any, fn Func) error {
	compiled, err := compileSchema(parameters)
	if err != nil {
		return fmt.Errorf("tool %q: invalid parameter schema: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = registeredTool{
		schema: model.ToolSchema{Name: name, Description: description, Parameters: parameters},
		schemaV: compiled,
		fn:     fn,
	}
	return nil
}

// Get returns the registered tool under name, if any.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return t.fn, true
}

// Validate checks input against name's registered JSON-Schema, if compiled.
// A tool registered with a nil/empty schema always validates.
func (r *Registry) Validate(name string, input map[string]any) error {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok || t.schemaV == nil {
		return nil
	}
	return t.schemaV.Validate(input)
}

// Schemas returns every registered tool's ToolSchema, for inclusion in a
// model adapter's tool-definitions array. Order is unspecified.
func (r *Registry) Schemas() []model.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ToolSchema, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.schema)
	}
	return out
}

// compileSchema compiles a raw JSON-Schema map the same way
// rickchristie-gent's schema.Compile does: marshal to JSON, re-parse through
// jsonschema.UnmarshalJSON, then hand the result to the compiler as an
// in-memory resource. A nil/empty map is valid and compiles to no validator.
func compileSchema(raw map[string]any) (*jsonschema.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	schemaData, err := jsonschema.UnmarshalJSON(strings.NewReader(string(encoded)))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", schemaData); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return c.Compile("schema.json")
}
