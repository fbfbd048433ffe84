package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/killallgit/loom/pkg/llm"
	"github.com/killallgit/loom/pkg/logger"
)

// ErrToolNotFound is wrapped into the failed result when a requested tool
// is not registered.
var ErrToolNotFound = errors.New("tool not found")

// Registry manages available tools and their execution. It is populated at
// startup and effectively immutable afterwards, shared across sessions.
type Registry struct {
	tools   map[string]Tool
	timeout time.Duration
	log     *logger.Logger
	mu      sync.RWMutex
}

// NewRegistry creates a new tool registry. timeout bounds every Execute
// call; a hung handler is converted into a failed result, never a stuck
// turn.
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Registry{
		tools:   make(map[string]Tool),
		timeout: timeout,
		log:     logger.WithComponent("tools"),
	}
}

// Register adds a tool to the registry, rejecting duplicate names.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}

	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTools returns true if the registry has any tools registered
func (r *Registry) HasTools() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools) > 0
}

// Definitions returns the provider-facing definitions for every registered
// tool, in name order. This is the single source of truth bound to the
// model each turn.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		tool := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.JSONSchema(),
		})
	}
	return defs
}

// Execute runs the named tool and always produces a result. Handler errors,
// panics, timeouts, missing tools, and invalid arguments all become results
// with Success=false so the model can see the failure and recover.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) ToolResult {
	start := time.Now()

	tool, exists := r.Get(name)
	if !exists {
		return r.failure(name, start, fmt.Sprintf("tool %s not found", name))
	}

	if err := validateParams(tool.JSONSchema(), params); err != nil {
		return r.failure(name, start, err.Error())
	}

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Run the handler off the calling goroutine so a handler that ignores
	// its context cannot hold the turn past the deadline. On expiry the
	// abandoned handler finishes in the background; the buffered channel
	// lets it exit.
	done := make(chan execOutcome, 1)
	go func() {
		result, err := safeExecute(execCtx, tool, params)
		done <- execOutcome{result: result, err: err}
	}()

	var out execOutcome
	select {
	case out = <-done:
	case <-execCtx.Done():
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return r.failure(name, start, fmt.Sprintf("tool %s timed out after %v", name, r.timeout))
		}
		return r.failure(name, start, execCtx.Err().Error())
	}

	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) || errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return r.failure(name, start, fmt.Sprintf("tool %s timed out after %v", name, r.timeout))
		}
		return r.failure(name, start, out.err.Error())
	}

	result := out.result
	result.Metadata.ToolName = name
	result.Metadata.ExecutionTime = time.Since(start)
	if !result.Success && result.Error == "" {
		result.Error = "tool reported failure without detail"
	}
	return result
}

type execOutcome struct {
	result ToolResult
	err    error
}

// safeExecute calls the handler with panic recovery. A panicking tool must
// not take the turn down with it.
func safeExecute(ctx context.Context, tool Tool, params map[string]any) (result ToolResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = ToolError{ToolName: tool.Name(), Message: fmt.Sprintf("panic: %v", rec)}
		}
	}()
	return tool.Execute(ctx, params)
}

func (r *Registry) failure(name string, start time.Time, reason string) ToolResult {
	r.log.Warn("tool %s failed: %s", name, reason)
	return ToolResult{
		Success: false,
		Error:   reason,
		Metadata: ToolMetadata{
			ToolName:      name,
			ExecutionTime: time.Since(start),
		},
	}
}

// validateParams checks that every schema-required argument is present.
// Schemas built in-process carry required as []string; schemas decoded
// from JSON (remote tool config) carry []any.
func validateParams(schema map[string]any, params map[string]any) error {
	var required []string
	switch fields := schema["required"].(type) {
	case []string:
		required = fields
	case []any:
		for _, field := range fields {
			if name, ok := field.(string); ok {
				required = append(required, name)
			}
		}
	}
	for _, field := range required {
		if _, ok := params[field]; !ok {
			return fmt.Errorf("missing required argument %q", field)
		}
	}
	return nil
}
