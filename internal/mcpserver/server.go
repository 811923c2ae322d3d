// Package mcpserver exposes a tools.Dispatcher over MCP transports (stdio and SSE).
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mcp-toolbox/internal/tools"
)

// SessionEvent reports a client session starting or ending.
type SessionEvent struct {
	ID        string
	Transport string
	Remote    string
	Connected bool
	Duration  time.Duration
}

// Options configures an Adapter.
type Options struct {
	Name      string
	Version   string
	Logger    *slog.Logger
	OnSession func(SessionEvent)
}

// Adapter binds a Dispatcher to MCP servers. Every session gets its own
// mcp.Server, but all of them call the same Dispatcher and therefore share
// its storage.
type Adapter struct {
	dispatcher *tools.Dispatcher
	impl       *mcp.Implementation
	logger     *slog.Logger
	onSession  func(SessionEvent)
	active     atomic.Int64
}

// New returns an Adapter for d.
func New(d *tools.Dispatcher, opts Options) *Adapter {
	if opts.Name == "" {
		opts.Name = "mcp-toolbox"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		dispatcher: d,
		impl:       &mcp.Implementation{Name: opts.Name, Version: opts.Version},
		logger:     logger,
		onSession:  opts.OnSession,
	}
}

// Server builds an mcp.Server exposing every registered tool in registry order.
func (a *Adapter) Server() *mcp.Server {
	srv := mcp.NewServer(a.impl, &mcp.ServerOptions{Logger: a.logger})
	for _, desc := range a.dispatcher.ListTools() {
		srv.AddTool(&mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: desc.InputSchema,
		}, a.toolHandler(desc.Name))
	}
	srv.AddReceivingMiddleware(a.unknownToolFallback)
	return srv
}

// ServeStdio serves a single client over stdin/stdout until it disconnects or ctx ends.
func (a *Adapter) ServeStdio(ctx context.Context) error {
	return a.ServeTransport(ctx, &mcp.StdioTransport{}, "stdio")
}

// ServeTransport runs one session over t.
func (a *Adapter) ServeTransport(ctx context.Context, t mcp.Transport, kind string) error {
	id := uuid.NewString()
	end := a.begin(id, kind, "")
	defer end()
	if err := a.Server().Run(ctx, t); err != nil {
		return fmt.Errorf("run mcp %s server: %w", kind, err)
	}
	return nil
}

// SSEHandler returns an http.Handler serving MCP over server-sent events.
// A GET opens a session and lasts as long as it does; POSTs carry client
// messages for an existing session.
func (a *Adapter) SSEHandler() http.Handler {
	sse := mcp.NewSSEHandler(func(*http.Request) *mcp.Server {
		return a.Server()
	}, nil)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			sse.ServeHTTP(w, r)
			return
		}
		end := a.begin(uuid.NewString(), "sse", r.RemoteAddr)
		defer end()
		sse.ServeHTTP(w, r)
	})
}

// ActiveSessions returns the number of sessions currently open.
func (a *Adapter) ActiveSessions() int64 {
	return a.active.Load()
}

func (a *Adapter) begin(id, kind, remote string) func() {
	start := time.Now()
	a.active.Add(1)
	a.logger.Info("session connected", "session_id", id, "transport", kind, "remote", remote)
	a.notify(SessionEvent{ID: id, Transport: kind, Remote: remote, Connected: true})
	return func() {
		d := time.Since(start)
		a.logger.Info("session disconnected", "session_id", id, "transport", kind, "duration", d)
		a.notify(SessionEvent{ID: id, Transport: kind, Remote: remote, Duration: d})
		a.active.Add(-1)
	}
}

func (a *Adapter) notify(ev SessionEvent) {
	if a.onSession != nil {
		a.onSession(ev)
	}
}

func (a *Adapter) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := decodeArguments(req.Params.Arguments)
		if err != nil {
			return callResult(tools.Errorf("Invalid arguments for %s: %v", name, err)), nil
		}
		return callResult(a.dispatcher.Call(ctx, tools.Invocation{Name: name, Arguments: args})), nil
	}
}

// unknownToolFallback answers tools/call for unregistered names with an
// error result instead of a protocol error.
func (a *Adapter) unknownToolFallback(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		if method != "tools/call" {
			return next(ctx, method, req)
		}
		call, ok := req.(*mcp.CallToolRequest)
		if !ok || call.Params == nil {
			return next(ctx, method, req)
		}
		if a.dispatcher.Has(call.Params.Name) {
			return next(ctx, method, req)
		}
		return callResult(a.dispatcher.Call(ctx, tools.Invocation{Name: call.Params.Name})), nil
	}
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, errors.New("arguments must be a JSON object")
	}
	return args, nil
}

func callResult(res tools.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: res.Text()}},
		IsError: res.IsError(),
	}
	if !res.IsError() {
		out.StructuredContent = res.Payload
	}
	return out
}
