package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-toolbox/internal/logging"
	"mcp-toolbox/internal/mcpserver"
)

func TestSessionHook(t *testing.T) {
	var buf bytes.Buffer
	hook := sessionHook(logging.New("debug", "json", &buf))

	hook(mcpserver.SessionEvent{ID: "s1", Transport: "sse", Remote: "10.0.0.1:5000", Connected: true})
	hook(mcpserver.SessionEvent{ID: "s1", Transport: "sse", Remote: "10.0.0.1:5000", Duration: 2 * time.Second})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var attached, detached map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &attached))
	require.NoError(t, json.Unmarshal(lines[1], &detached))

	assert.Equal(t, "mcp client attached", attached["msg"])
	assert.Equal(t, "s1", attached["session_id"])
	assert.Equal(t, "10.0.0.1:5000", attached["remote"])
	assert.Equal(t, "mcp client detached", detached["msg"])
	assert.Equal(t, float64(2*time.Second), detached["duration"])
}

func TestSessionHookQuietAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	hook := sessionHook(logging.New("info", "json", &buf))
	hook(mcpserver.SessionEvent{ID: "s1", Connected: true})
	assert.Empty(t, buf.String())
}
