package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-toolbox/internal/storage"
)

func newTestDispatcher(t *testing.T, opts ...Option) (*Dispatcher, *storage.Store) {
	t.Helper()
	store := storage.New()
	opts = append([]Option{WithSystemProbe(fakeProbe)}, opts...)
	d, err := New(store, opts...)
	require.NoError(t, err)
	return d, store
}

func fakeProbe(context.Context) (SystemInfo, error) {
	return SystemInfo{Platform: "linux", Architecture: "amd64", NumCPU: 4}, nil
}

func call(t *testing.T, d *Dispatcher, name string, args map[string]any) Result {
	t.Helper()
	return d.Call(context.Background(), Invocation{Name: name, Arguments: args})
}

func TestListToolsOrder(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var names []string
	for _, desc := range d.ListTools() {
		names = append(names, desc.Name)
		require.NotNil(t, desc.InputSchema, desc.Name)
		assert.Equal(t, "object", desc.InputSchema.Type, desc.Name)
		assert.NotEmpty(t, desc.Description, desc.Name)
	}
	assert.Equal(t, []string{
		"calculator", "storage_set", "storage_get", "storage_delete",
		"storage_list", "system_info", "echo",
	}, names)
}

func TestListToolsSchemas(t *testing.T) {
	d, _ := newTestDispatcher(t)
	tools := d.ListTools()

	calc := tools[0].InputSchema
	assert.ElementsMatch(t, []string{"operation", "a", "b"}, calc.Required)
	assert.Equal(t, []any{"add", "subtract", "multiply", "divide"}, calc.Properties["operation"].Enum)
	assert.Equal(t, "number", calc.Properties["a"].Type)

	set := tools[1].InputSchema
	assert.ElementsMatch(t, []string{"key", "value"}, set.Required)

	list := tools[4].InputSchema
	assert.Empty(t, list.Required)

	raw, err := json.Marshal(tools[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"inputSchema"`)
}

func TestCallUnknownTool(t *testing.T) {
	d, _ := newTestDispatcher(t)
	res := call(t, d, "nope", nil)
	require.True(t, res.IsError())
	assert.Equal(t, "Unknown tool: nope", res.Err)
	assert.JSONEq(t, `{"error":"Unknown tool: nope"}`, res.Text())
}

func TestCallInvalidArguments(t *testing.T) {
	d, _ := newTestDispatcher(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"missing field", "calculator", map[string]any{"operation": "add", "a": 1}},
		{"wrong type", "calculator", map[string]any{"operation": "add", "a": "1", "b": 2}},
		{"bad enum", "calculator", map[string]any{"operation": "modulo", "a": 1, "b": 2}},
		{"missing key", "storage_get", nil},
		{"numeric value", "storage_set", map[string]any{"key": "k", "value": 5}},
		{"missing message", "echo", map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, d, tt.tool, tt.args)
			require.True(t, res.IsError())
			assert.Contains(t, res.Err, "Invalid arguments for "+tt.tool)
		})
	}
}

func TestCallIgnoresExtraArguments(t *testing.T) {
	d, _ := newTestDispatcher(t)
	res := call(t, d, "echo", map[string]any{"message": "hi", "extra": true})
	require.False(t, res.IsError(), res.Err)
}

func TestCallConvertsFaults(t *testing.T) {
	d, _ := newTestDispatcher(t, WithSystemProbe(func(context.Context) (SystemInfo, error) {
		return SystemInfo{}, errors.New("proc unavailable")
	}))

	res := call(t, d, "system_info", nil)
	require.True(t, res.IsError())
	assert.Equal(t, "proc unavailable", res.Err)
}

func TestCallRecoversPanics(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{Name: "boom", Description: "panics"},
		HandlerFunc(func(context.Context, map[string]any) (any, error) {
			panic("kaboom")
		})))
	d := NewDispatcher(r, nil)

	res := call(t, d, "boom", nil)
	require.True(t, res.IsError())
	assert.Contains(t, res.Err, "kaboom")
}

func TestCallUnencodableResult(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Descriptor{Name: "chan", Description: "returns a channel"},
		HandlerFunc(func(context.Context, map[string]any) (any, error) {
			return make(chan int), nil
		})))
	d := NewDispatcher(r, nil)

	res := call(t, d, "chan", nil)
	require.True(t, res.IsError())
	assert.Contains(t, res.Err, "encoding result")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	h := HandlerFunc(func(context.Context, map[string]any) (any, error) { return nil, nil })
	require.NoError(t, r.Register(Descriptor{Name: "a"}, h))
	err := r.Register(Descriptor{Name: "a"}, h)
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Len(t, r.List(), 1)
	assert.True(t, r.Has("a"))
}

func TestResultText(t *testing.T) {
	res := OK(json.RawMessage(`{"a":1}`))
	assert.Equal(t, "{\n  \"a\": 1\n}", res.Text())
	assert.False(t, res.IsError())

	var v map[string]int
	require.NoError(t, res.Decode(&v))
	assert.Equal(t, 1, v["a"])

	errRes := Errorf("bad %s", "thing")
	assert.Error(t, errRes.Decode(&v))
}

func TestEchoThroughDispatcher(t *testing.T) {
	fixed := time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	d, _ := newTestDispatcher(t, WithClock(func() time.Time { return fixed }))

	res := call(t, d, "echo", map[string]any{"message": "x"})
	require.False(t, res.IsError(), res.Err)

	var out EchoResult
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, "x", out.Echo)
	assert.Equal(t, 1, out.Length)
	assert.Equal(t, "2025-03-04T05:06:07.008Z", out.Timestamp)
}

func TestSystemInfoThroughDispatcher(t *testing.T) {
	d, _ := newTestDispatcher(t)
	res := call(t, d, "system_info", map[string]any{})
	require.False(t, res.IsError(), res.Err)

	var out SystemInfo
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, "linux", out.Platform)
	assert.Equal(t, 4, out.NumCPU)
}

func TestHostProbe(t *testing.T) {
	info, err := HostProbe(time.Now().Add(-time.Second))(context.Background())
	if err != nil {
		t.Skipf("host probe unavailable: %v", err)
	}
	assert.NotEmpty(t, info.Architecture)
	assert.NotEmpty(t, info.GoVersion)
	assert.Greater(t, info.UptimeSeconds, 0.0)
	assert.Greater(t, info.Memory.Total, uint64(0))
}
