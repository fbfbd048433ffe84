package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/loom/pkg/chat"
	"github.com/killallgit/loom/pkg/stream"
)

// ErrToolsUnsupported is returned when tools are bound to a provider whose
// backing model cannot do tool calling. Binding fails fast instead of
// silently dropping the tool set.
var ErrToolsUnsupported = errors.New("provider does not support tool calling")

// ToolDefinition is the provider-facing description of one callable tool.
// Parameters is a JSON Schema object (type/properties/required).
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// BindOptions controls how a tool set is attached to a provider handle.
type BindOptions struct {
	// DisableParallelToolCalls asks the backend to emit at most one tool
	// call per response. The orchestrator always sets this.
	DisableParallelToolCalls bool
}

// Provider is the uniform model-invocation port. Handles are immutable:
// BindTools returns a new independent handle and leaves the receiver
// unchanged.
type Provider interface {
	// Name returns the provider name (ollama, openai, ...)
	Name() string

	// Model returns the current model name
	Model() string

	// SupportsTools reports whether the backing model can do tool calling
	SupportsTools() bool

	// BindTools returns a new provider handle with the tool set attached.
	// Fails with ErrToolsUnsupported when the provider cannot call tools
	// and with a collision error when two definitions share a name.
	BindTools(defs []ToolDefinition, opts BindOptions) (Provider, error)

	// Invoke runs a single-shot completion over the conversation
	Invoke(ctx context.Context, messages []chat.Message) (chat.Message, error)

	// Stream runs a completion forwarding token deltas to handler as they
	// arrive and returns the finished assistant message. Tool-call deltas
	// are not streamed; they appear only on the returned message.
	Stream(ctx context.Context, messages []chat.Message, handler stream.Handler) (chat.Message, error)
}

// validateToolSet rejects duplicate names within one bound set.
func validateToolSet(defs []ToolDefinition) error {
	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return fmt.Errorf("tool definition with empty name")
		}
		if seen[def.Name] {
			return fmt.Errorf("duplicate tool name in bound set: %s", def.Name)
		}
		seen[def.Name] = true
	}
	return nil
}
