package tools

import (
	"context"
	"time"
)

// Tool represents a function that can be called by an LLM
type Tool interface {
	// Name returns the unique identifier for this tool
	Name() string

	// Description returns a human/LLM-readable description of what this tool does
	Description() string

	// JSONSchema returns the JSON Schema for the tool's parameters
	JSONSchema() map[string]any

	// Execute runs the tool with the given parameters
	Execute(ctx context.Context, params map[string]any) (ToolResult, error)
}

// ToolResult represents the result of a tool execution. A failed execution
// is still a result: the registry converts handler errors into results with
// Success=false so the conversation can continue.
type ToolResult struct {
	// Success indicates whether the tool execution was successful
	Success bool `json:"success"`

	// Content is the main result content
	Content string `json:"content"`

	// Error contains error information if Success is false
	Error string `json:"error,omitempty"`

	// Metadata contains additional information about the execution
	Metadata ToolMetadata `json:"metadata"`
}

// ToolMetadata contains execution information
type ToolMetadata struct {
	// ToolName is the name of the tool that was executed
	ToolName string `json:"tool_name"`

	// ExecutionTime is how long the tool took to execute
	ExecutionTime time.Duration `json:"execution_time"`
}

// Payload returns the string the model should see for this result.
func (r ToolResult) Payload() string {
	if r.Success {
		return r.Content
	}
	return "tool failed: " + r.Error
}

// ToolError represents an error from tool execution
type ToolError struct {
	ToolName string
	Message  string
	Cause    error
}

func (e ToolError) Error() string {
	if e.Cause != nil {
		return e.ToolName + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.ToolName + ": " + e.Message
}

func (e ToolError) Unwrap() error {
	return e.Cause
}

// NewJSONSchema creates a basic JSON Schema structure
func NewJSONSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": make(map[string]any),
		"required":   []string{},
	}
}

// JSONSchemaProperty represents a property in a JSON Schema
type JSONSchemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Enum        []any  `json:"enum,omitempty"`
}

// AddProperty adds a property to a JSON Schema
func AddProperty(schema map[string]any, name string, property JSONSchemaProperty) {
	if properties, ok := schema["properties"].(map[string]any); ok {
		properties[name] = property
	}
}

// AddRequired adds a required field to a JSON Schema
func AddRequired(schema map[string]any, field string) {
	if required, ok := schema["required"].([]string); ok {
		schema["required"] = append(required, field)
	}
}
