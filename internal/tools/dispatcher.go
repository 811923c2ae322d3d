package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Invocation is one request to run a tool.
type Invocation struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolError is an expected, tool-level failure such as a missing key.
// It is returned to the caller as an error result and is not logged as a fault.
type ToolError struct {
	Message string
}

func (e *ToolError) Error() string { return e.Message }

// Result is the outcome of a tool call: either a JSON payload or an error message.
type Result struct {
	Payload json.RawMessage
	Err     string
	isError bool
}

// OK returns a successful Result carrying payload.
func OK(payload json.RawMessage) Result {
	return Result{Payload: payload}
}

// Errorf returns an error Result with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{Err: fmt.Sprintf(format, args...), isError: true}
}

// IsError reports whether r is an error result.
func (r Result) IsError() bool { return r.isError }

// Decode unmarshals the payload of a successful result into v.
func (r Result) Decode(v any) error {
	if r.isError {
		return errors.New(r.Err)
	}
	return json.Unmarshal(r.Payload, v)
}

// Text renders r as the text content sent to clients: indented JSON for a
// payload, {"error": "..."} for an error.
func (r Result) Text() string {
	if r.isError {
		b, _ := json.Marshal(map[string]string{"error": r.Err})
		return string(b)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Payload, "", "  "); err != nil {
		return string(r.Payload)
	}
	return buf.String()
}

// Dispatcher resolves invocations against a Registry and runs them.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher returns a Dispatcher over r. A nil logger uses slog.Default.
func NewDispatcher(r *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: r, logger: logger}
}

// ListTools returns the tool descriptors in registry order.
func (d *Dispatcher) ListTools() []Descriptor {
	return d.registry.List()
}

// Has reports whether a tool named name is registered.
func (d *Dispatcher) Has(name string) bool {
	return d.registry.Has(name)
}

// Call runs inv and always returns a Result; failures of any kind become
// error results.
func (d *Dispatcher) Call(ctx context.Context, inv Invocation) Result {
	id := uuid.NewString()
	logger := d.logger.With("tool_name", inv.Name, "invocation_id", id)

	e, ok := d.registry.lookup(inv.Name)
	if !ok {
		logger.Warn("unknown tool")
		return Errorf("Unknown tool: %s", inv.Name)
	}

	args, err := normalizeArgs(inv.Arguments)
	if err == nil {
		err = e.schema.Validate(args)
	}
	if err != nil {
		logger.Debug("invalid tool arguments", "error", err)
		return Errorf("Invalid arguments for %s: %v", inv.Name, err)
	}

	start := time.Now()
	out, err := invoke(ctx, e.handler, args)
	if err == nil {
		var payload []byte
		payload, err = json.Marshal(out)
		if err == nil {
			logger.Debug("tool call complete", "duration", time.Since(start))
			return OK(payload)
		}
		err = fmt.Errorf("encoding result: %w", err)
	}

	var te *ToolError
	if errors.As(err, &te) {
		logger.Debug("tool returned error", "error", err, "duration", time.Since(start))
	} else {
		logger.Error("tool execution failed", "error", err, "duration", time.Since(start))
	}
	return Errorf("%s", err.Error())
}

// invoke runs h, converting a panic into an error.
func invoke(ctx context.Context, h Handler, args map[string]any) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = fmt.Errorf("tool panicked: %v", p)
		}
	}()
	return h.Invoke(ctx, args)
}

// normalizeArgs round-trips args through JSON so validation sees plain JSON
// values regardless of the Go types the caller used.
func normalizeArgs(args map[string]any) (map[string]any, error) {
	if len(args) == 0 {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	out := make(map[string]any, len(args))
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	return out, nil
}
