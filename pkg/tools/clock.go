package tools

import (
	"context"
	"time"
)

// ClockTool reports the current time, optionally in a named IANA zone.
type ClockTool struct {
	now func() time.Time
}

func NewClockTool() *ClockTool {
	return &ClockTool{now: time.Now}
}

func (t *ClockTool) Name() string {
	return "current_time"
}

func (t *ClockTool) Description() string {
	return "Get the current date and time. Optional input: an IANA timezone name such as 'Europe/Berlin'; defaults to UTC."
}

func (t *ClockTool) JSONSchema() map[string]any {
	schema := NewJSONSchema()
	AddProperty(schema, "timezone", JSONSchemaProperty{
		Type:        "string",
		Description: "IANA timezone name, defaults to UTC",
	})
	return schema
}

func (t *ClockTool) Execute(ctx context.Context, params map[string]any) (ToolResult, error) {
	loc := time.UTC
	if name, ok := params["timezone"].(string); ok && name != "" {
		parsed, err := time.LoadLocation(name)
		if err != nil {
			return ToolResult{}, ToolError{ToolName: t.Name(), Message: "unknown timezone", Cause: err}
		}
		loc = parsed
	}

	return ToolResult{
		Success: true,
		Content: t.now().In(loc).Format(time.RFC1123),
	}, nil
}
