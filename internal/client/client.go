// Package client is a small client for the remote MCP server: the REST
// endpoints directly, and MCP sessions over SSE.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mcp-toolbox/internal/server"
	"mcp-toolbox/internal/tools"
)

// Client talks to one server. Token may be empty when the server is open.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New returns a new client. If httpClient is nil, a default with 15s timeout is used.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Token: token, HTTP: httpClient}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server status %d: %s", e.Code, strings.TrimSpace(e.Body))
}

// Health fetches GET /health.
func (c *Client) Health(ctx context.Context) (server.Health, error) {
	var h server.Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &h)
	return h, err
}

// Metrics fetches GET /metrics.
func (c *Client) Metrics(ctx context.Context) (server.Metrics, error) {
	var m server.Metrics
	err := c.do(ctx, http.MethodGet, "/metrics", nil, &m)
	return m, err
}

// ListTools fetches GET /mcp/tools.
func (c *Client) ListTools(ctx context.Context) ([]tools.Descriptor, error) {
	var resp struct {
		Tools []tools.Descriptor `json:"tools"`
	}
	if err := c.do(ctx, http.MethodGet, "/mcp/tools", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// CallTool invokes a tool through POST /mcp/call. Tool-level failures come
// back as a response with IsError set, not as an error.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (server.CallResponse, error) {
	var resp server.CallResponse
	err := c.do(ctx, http.MethodPost, "/mcp/call", server.CallRequest{Name: name, Args: args}, &resp)
	return resp, err
}

// ConnectSSE opens an MCP session over GET /sse. The session's HTTP client
// has no overall timeout since the event stream stays open; ctx bounds the
// handshake only.
func (c *Client) ConnectSSE(ctx context.Context, impl *mcp.Implementation) (*mcp.ClientSession, error) {
	base := c.HTTP.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	transport := &mcp.SSEClientTransport{
		Endpoint:   c.BaseURL + "/sse",
		HTTPClient: &http.Client{Transport: &bearerTransport{token: c.Token, base: base}},
	}
	cs, err := mcp.NewClient(impl, nil).Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect sse: %w", err)
	}
	return cs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(msg)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if t.token == "" {
		return t.base.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(r)
}
