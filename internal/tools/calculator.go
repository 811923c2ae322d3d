package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	// ErrDivisionByZero is returned for divide with a zero divisor.
	ErrDivisionByZero = &ToolError{Message: "Division by zero is not allowed"}
	// ErrUnknownOperation is returned for an operation outside add/subtract/multiply/divide.
	ErrUnknownOperation = &ToolError{Message: "Unknown operation"}
	// ErrNonFinite is returned when a result overflows to infinity.
	ErrNonFinite = &ToolError{Message: "Result is not a finite number"}
)

// Operations lists the calculator operations in schema order.
var Operations = []string{"add", "subtract", "multiply", "divide"}

// CalculatorInput is the calculator tool input.
type CalculatorInput struct {
	Operation string  `json:"operation" jsonschema:"The arithmetic operation to perform"`
	A         float64 `json:"a" jsonschema:"The first number"`
	B         float64 `json:"b" jsonschema:"The second number"`
}

// CalculatorResult is the calculator tool output.
type CalculatorResult struct {
	Result    float64 `json:"result"`
	Operation string  `json:"operation"`
}

// Calculate applies op to a and b.
func Calculate(op string, a, b float64) (CalculatorResult, error) {
	var r float64
	switch op {
	case "add":
		r = a + b
	case "subtract":
		r = a - b
	case "multiply":
		r = a * b
	case "divide":
		if b == 0 {
			return CalculatorResult{}, ErrDivisionByZero
		}
		r = a / b
	default:
		return CalculatorResult{}, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return CalculatorResult{}, ErrNonFinite
	}
	return CalculatorResult{
		Result:    r,
		Operation: fmt.Sprintf("%s %s %s = %s", formatNumber(a), op, formatNumber(b), formatNumber(r)),
	}, nil
}

// formatNumber prints plain decimals for everyday magnitudes and falls back
// to exponent form outside [1e-7, 1e21).
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-7 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func registerCalculator(r *Registry) error {
	return addTool(r, "calculator",
		"Perform basic arithmetic operations (add, subtract, multiply, divide)",
		func(_ context.Context, in CalculatorInput) (any, error) {
			return Calculate(in.Operation, in.A, in.B)
		},
		func(s *jsonschema.Schema) {
			enum := make([]any, len(Operations))
			for i, op := range Operations {
				enum[i] = op
			}
			s.Properties["operation"].Enum = enum
		})
}
