package server

import "mcp-toolbox/internal/tools"

// ToolsResponse is the body of GET /mcp/tools.
type ToolsResponse struct {
	Tools []tools.Descriptor `json:"tools"`
}

// CallRequest is the body of POST /mcp/call.
type CallRequest struct {
	Name string         `json:"name"`
	Args map[string]any `json:"arguments"`
}

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResponse mirrors the MCP tools/call result shape.
type CallResponse struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError"`
}

// Health is the body of GET /health.
type Health struct {
	Status        string  `json:"status"`
	Timestamp     string  `json:"timestamp"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version"`
}

// Metrics is the body of GET /metrics.
type Metrics struct {
	StorageItems   int         `json:"storage_items"`
	ActiveSessions int64       `json:"active_sessions"`
	UptimeSeconds  float64     `json:"uptime_seconds"`
	Memory         MemoryStats `json:"memory"`
}

// MemoryStats is a subset of runtime.MemStats.
type MemoryStats struct {
	AllocBytes  uint64 `json:"alloc_bytes"`
	SysBytes    uint64 `json:"sys_bytes"`
	HeapObjects uint64 `json:"heap_objects"`
	NumGC       uint32 `json:"num_gc"`
}

// Info is the body of GET /.
type Info struct {
	Name           string            `json:"name"`
	Version        string            `json:"version"`
	Endpoints      map[string]string `json:"endpoints"`
	Authentication string            `json:"authentication"`
}

// Text returns the text of the first content block, or "" when there is none.
func (r CallResponse) Text() string {
	if len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}
