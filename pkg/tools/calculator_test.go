package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatorOperations(t *testing.T) {
	calc := NewCalculatorTool()

	cases := []struct {
		op   string
		a, b float64
		want string
	}{
		{"add", 2, 3, "5"},
		{"subtract", 10, 4, "6"},
		{"multiply", 5, 3, "15"},
		{"divide", 9, 2, "4.5"},
	}

	for _, tc := range cases {
		result, err := calc.Execute(context.Background(), map[string]any{
			"operation": tc.op, "a": tc.a, "b": tc.b,
		})
		require.NoError(t, err, tc.op)
		assert.True(t, result.Success)
		assert.Equal(t, tc.want, result.Content, tc.op)
	}
}

func TestCalculatorDivisionByZero(t *testing.T) {
	calc := NewCalculatorTool()

	_, err := calc.Execute(context.Background(), map[string]any{
		"operation": "divide", "a": 1, "b": 0,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}

func TestCalculatorUnknownOperation(t *testing.T) {
	calc := NewCalculatorTool()

	_, err := calc.Execute(context.Background(), map[string]any{
		"operation": "modulo", "a": 1, "b": 2,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestCalculatorAcceptsJSONNumberShapes(t *testing.T) {
	calc := NewCalculatorTool()

	// Arguments decoded from model JSON arrive as float64, but handwritten
	// params may be ints or strings.
	result, err := calc.Execute(context.Background(), map[string]any{
		"operation": "multiply", "a": 5, "b": "3",
	})

	require.NoError(t, err)
	assert.Equal(t, "15", result.Content)
}

func TestCalculatorRejectsNonNumbers(t *testing.T) {
	calc := NewCalculatorTool()

	_, err := calc.Execute(context.Background(), map[string]any{
		"operation": "add", "a": "many", "b": 2,
	})

	require.Error(t, err)
	var toolErr ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "calculator", toolErr.ToolName)
}
