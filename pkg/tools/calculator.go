package tools

import (
	"context"
	"fmt"
	"strconv"
)

// CalculatorTool performs basic arithmetic. It exists mostly so tool-capable
// models have something deterministic to call.
type CalculatorTool struct{}

func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

func (t *CalculatorTool) Name() string {
	return "calculator"
}

func (t *CalculatorTool) Description() string {
	return "Perform basic arithmetic on two numbers. Supported operations: add, subtract, multiply, divide. Input: operation name plus operands a and b."
}

func (t *CalculatorTool) JSONSchema() map[string]any {
	schema := NewJSONSchema()
	AddProperty(schema, "operation", JSONSchemaProperty{
		Type:        "string",
		Description: "The arithmetic operation to perform",
		Enum:        []any{"add", "subtract", "multiply", "divide"},
	})
	AddProperty(schema, "a", JSONSchemaProperty{Type: "number", Description: "First operand"})
	AddProperty(schema, "b", JSONSchemaProperty{Type: "number", Description: "Second operand"})
	AddRequired(schema, "operation")
	AddRequired(schema, "a")
	AddRequired(schema, "b")
	return schema
}

func (t *CalculatorTool) Execute(ctx context.Context, params map[string]any) (ToolResult, error) {
	a, err := toFloat(params["a"])
	if err != nil {
		return ToolResult{}, ToolError{ToolName: t.Name(), Message: "argument a", Cause: err}
	}
	b, err := toFloat(params["b"])
	if err != nil {
		return ToolResult{}, ToolError{ToolName: t.Name(), Message: "argument b", Cause: err}
	}

	op, _ := params["operation"].(string)
	var value float64
	switch op {
	case "add":
		value = a + b
	case "subtract":
		value = a - b
	case "multiply":
		value = a * b
	case "divide":
		if b == 0 {
			return ToolResult{}, ToolError{ToolName: t.Name(), Message: "division by zero"}
		}
		value = a / b
	default:
		return ToolResult{}, ToolError{ToolName: t.Name(), Message: fmt.Sprintf("unknown operation %q", op)}
	}

	return ToolResult{
		Success: true,
		Content: strconv.FormatFloat(value, 'f', -1, 64),
	}, nil
}

// toFloat accepts the numeric shapes JSON decoding can produce.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
