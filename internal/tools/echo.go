package tools

import (
	"context"
	"time"
	"unicode/utf8"
)

// isoMillis is ISO-8601 with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// EchoInput is the echo tool input.
type EchoInput struct {
	Message string `json:"message" jsonschema:"The message to echo back"`
}

// EchoResult is the echo tool output.
type EchoResult struct {
	Echo      string `json:"echo"`
	Timestamp string `json:"timestamp"`
	Length    int    `json:"length"`
}

// Echo returns message unchanged with its character count.
func Echo(message string, now time.Time) EchoResult {
	return EchoResult{
		Echo:      message,
		Timestamp: now.UTC().Format(isoMillis),
		Length:    utf8.RuneCountInString(message),
	}
}

func registerEcho(r *Registry, now func() time.Time) error {
	return addTool(r, "echo", "Echo back a message (for testing)",
		func(_ context.Context, in EchoInput) (any, error) {
			return Echo(in.Message, now()), nil
		}, nil)
}
