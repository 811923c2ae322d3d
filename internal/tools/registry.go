package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrDuplicateTool is returned when a tool name is registered twice.
var ErrDuplicateTool = errors.New("tool already registered")

// Descriptor describes a tool to clients.
type Descriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// Handler executes one tool. Arguments have already been validated against
// the tool's input schema.
type Handler interface {
	Invoke(ctx context.Context, args map[string]any) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Invoke calls f.
func (f HandlerFunc) Invoke(ctx context.Context, args map[string]any) (any, error) {
	return f(ctx, args)
}

type entry struct {
	desc    Descriptor
	schema  *jsonschema.Resolved
	handler Handler
}

// Registry is an ordered catalog of tools.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a tool. The descriptor's schema must be an object schema.
func (r *Registry) Register(d Descriptor, h Handler) error {
	if d.Name == "" {
		return errors.New("tool name is required")
	}
	if h == nil {
		return fmt.Errorf("tool %s: nil handler", d.Name)
	}
	if d.InputSchema == nil {
		d.InputSchema = &jsonschema.Schema{Type: "object"}
	}
	if d.InputSchema.Type != "object" {
		return fmt.Errorf("tool %s: input schema must have type object, got %q", d.Name, d.InputSchema.Type)
	}
	resolved, err := d.InputSchema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("tool %s: resolving input schema: %w", d.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, d.Name)
	}
	r.entries[d.Name] = &entry{desc: d, schema: resolved, handler: h}
	r.order = append(r.order, d.Name)
	return nil
}

// List returns the descriptors in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].desc)
	}
	return out
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	_, ok := r.entries[name]
	r.mu.RUnlock()
	return ok
}

func (r *Registry) lookup(name string) (*entry, bool) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	return e, ok
}

// addTool registers a handler whose input is decoded into In. The input
// schema is inferred from In; patch may refine it (enums, descriptions).
func addTool[In any](r *Registry, name, description string, fn func(context.Context, In) (any, error), patch func(*jsonschema.Schema)) error {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return fmt.Errorf("tool %s: inferring input schema: %w", name, err)
	}
	// Unknown fields are ignored rather than rejected.
	schema.AdditionalProperties = nil
	if schema.Properties == nil {
		schema.Properties = map[string]*jsonschema.Schema{}
	}
	if patch != nil {
		patch(schema)
	}
	return r.Register(Descriptor{Name: name, Description: description, InputSchema: schema}, typedHandler(fn))
}

func typedHandler[In any](fn func(context.Context, In) (any, error)) Handler {
	return HandlerFunc(func(ctx context.Context, args map[string]any) (any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshaling tool arguments: %w", err)
		}
		var in In
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, &ToolError{Message: "Invalid arguments: " + err.Error()}
		}
		return fn(ctx, in)
	})
}
