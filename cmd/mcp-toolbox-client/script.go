package main

import (
	"context"
	"io"
	"strings"

	"github.com/fatih/color"
)

type step struct {
	title     string
	tool      string
	args      map[string]any
	wantError bool
}

func smokeSteps() []step {
	steps := []step{
		{title: "100 add 50", tool: "calculator", args: map[string]any{"operation": "add", "a": 100, "b": 50}},
		{title: "100 subtract 30", tool: "calculator", args: map[string]any{"operation": "subtract", "a": 100, "b": 30}},
		{title: "12 multiply 8", tool: "calculator", args: map[string]any{"operation": "multiply", "a": 12, "b": 8}},
		{title: "144 divide 12", tool: "calculator", args: map[string]any{"operation": "divide", "a": 144, "b": 12}},
		{title: "10 divide 0", tool: "calculator", args: map[string]any{"operation": "divide", "a": 10, "b": 0}, wantError: true},
	}

	profile := [][2]string{
		{"name", "Alice Johnson"},
		{"email", "alice@example.com"},
		{"role", "Developer"},
		{"location", "Tokyo"},
	}
	for _, kv := range profile {
		steps = append(steps, step{title: "set " + kv[0], tool: "storage_set", args: map[string]any{"key": kv[0], "value": kv[1]}})
	}
	for _, kv := range profile {
		steps = append(steps, step{title: "get " + kv[0], tool: "storage_get", args: map[string]any{"key": kv[0]}})
	}
	return append(steps,
		step{title: "list", tool: "storage_list"},
		step{title: "delete location", tool: "storage_delete", args: map[string]any{"key": "location"}},
		step{title: "get deleted location", tool: "storage_get", args: map[string]any{"key": "location"}, wantError: true},
		step{title: "system info", tool: "system_info"},
		step{title: "echo", tool: "echo", args: map[string]any{"message": "Hello, MCP!"}},
	)
}

// runScript lists the tools, runs every smoke step and returns the number of failures.
func runScript(ctx context.Context, tc toolCaller, w io.Writer) int {
	head := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	dim := color.New(color.FgHiBlack)

	failures := 0
	names, err := tc.ListTools(ctx)
	if err != nil {
		bad.Fprintf(w, "✗ list tools: %v\n", err)
		return 1
	}
	head.Fprintf(w, "tools (%d): %s\n", len(names), strings.Join(names, ", "))

	current := ""
	for _, s := range smokeSteps() {
		if s.tool != current {
			current = s.tool
			head.Fprintf(w, "\n%s\n", current)
		}
		text, isError, err := tc.Call(ctx, s.tool, s.args)
		switch {
		case err != nil:
			failures++
			bad.Fprintf(w, "✗ %s: %v\n", s.title, err)
		case isError != s.wantError:
			failures++
			bad.Fprintf(w, "✗ %s: isError=%v\n", s.title, isError)
			dim.Fprintln(w, indent(text))
		default:
			ok.Fprintf(w, "✓ %s\n", s.title)
			dim.Fprintln(w, indent(text))
		}
	}
	return failures
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}
