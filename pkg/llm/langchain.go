package llm

import (
	"context"
	"fmt"

	"github.com/killallgit/loom/pkg/chat"
	"github.com/killallgit/loom/pkg/logger"
	"github.com/killallgit/loom/pkg/stream"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainProvider implements Provider over a LangChain-Go model. A bound
// handle shares the underlying model client (which is stateless) but carries
// its own tool set, so binding never affects the origin handle.
type LangChainProvider struct {
	model         llms.Model
	name          string
	modelName     string
	supportsTools bool
	boundTools    []llms.Tool
	bindOpts      BindOptions
	log           *logger.Logger
}

// NewOllama creates a provider backed by a local Ollama server.
func NewOllama(baseURL, model string) (*LangChainProvider, error) {
	var opts []ollama.Option
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}
	if model != "" {
		opts = append(opts, ollama.WithModel(model))
	}

	backend, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &LangChainProvider{
		model:         backend,
		name:          "ollama",
		modelName:     model,
		supportsTools: true,
		log:           logger.WithComponent("llm"),
	}, nil
}

// NewOpenAI creates a provider backed by the OpenAI API (or a compatible
// endpoint when baseURL is set).
func NewOpenAI(apiKey, baseURL, model string) (*LangChainProvider, error) {
	opts := []openai.Option{openai.WithModel(model)}
	if apiKey != "" {
		opts = append(opts, openai.WithToken(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	backend, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	return &LangChainProvider{
		model:         backend,
		name:          "openai",
		modelName:     model,
		supportsTools: true,
		log:           logger.WithComponent("llm"),
	}, nil
}

// newFromModel wraps an arbitrary LangChain model, used by tests.
func newFromModel(model llms.Model, name, modelName string, supportsTools bool) *LangChainProvider {
	return &LangChainProvider{
		model:         model,
		name:          name,
		modelName:     modelName,
		supportsTools: supportsTools,
		log:           logger.WithComponent("llm"),
	}
}

func (p *LangChainProvider) Name() string {
	return p.name
}

func (p *LangChainProvider) Model() string {
	return p.modelName
}

func (p *LangChainProvider) SupportsTools() bool {
	return p.supportsTools
}

// BindTools implements Provider. The returned handle is independent of the
// receiver; the receiver's tool set (usually empty) is unchanged.
func (p *LangChainProvider) BindTools(defs []ToolDefinition, opts BindOptions) (Provider, error) {
	if !p.supportsTools {
		return nil, fmt.Errorf("binding %d tools to %s: %w", len(defs), p.name, ErrToolsUnsupported)
	}
	if err := validateToolSet(defs); err != nil {
		return nil, fmt.Errorf("binding tools to %s: %w", p.name, err)
	}

	bound := make([]llms.Tool, 0, len(defs))
	for _, def := range defs {
		bound = append(bound, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}

	clone := *p
	clone.boundTools = bound
	clone.bindOpts = opts
	return &clone, nil
}

// Invoke implements Provider.
func (p *LangChainProvider) Invoke(ctx context.Context, messages []chat.Message) (chat.Message, error) {
	return p.generate(ctx, messages, nil)
}

// Stream implements Provider. Token deltas go to handler as they arrive;
// the finished assistant message (including any tool calls) is returned.
func (p *LangChainProvider) Stream(ctx context.Context, messages []chat.Message, handler stream.Handler) (chat.Message, error) {
	msg, err := p.generate(ctx, messages, handler)
	if err != nil {
		handler.OnError(err)
		return chat.Message{}, err
	}
	if err := handler.OnComplete(msg.Content); err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

func (p *LangChainProvider) generate(ctx context.Context, messages []chat.Message, handler stream.Handler) (chat.Message, error) {
	converted := toMessageContent(messages)

	var opts []llms.CallOption
	if len(p.boundTools) > 0 {
		opts = append(opts, llms.WithTools(p.boundTools))
	}
	if handler != nil {
		opts = append(opts, llms.WithStreamingFunc(stream.ToStreamingFunc(handler)))
	}

	response, err := p.model.GenerateContent(ctx, converted, opts...)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%s content generation failed: %w", p.name, err)
	}
	if len(response.Choices) == 0 {
		return chat.Message{}, fmt.Errorf("%s returned no response choices", p.name)
	}

	choice := response.Choices[0]
	msg := fromContentChoice(choice)

	// LangChain has no portable switch for parallel tool calls, so the
	// single-call contract is enforced here: extras are a backend contract
	// violation, logged and dropped.
	if p.bindOpts.DisableParallelToolCalls && len(msg.ToolCalls) > 1 {
		p.log.Warn("model %s emitted %d tool calls with parallel calls disabled, keeping the first",
			p.modelName, len(msg.ToolCalls))
		msg.ToolCalls = msg.ToolCalls[:1]
	}

	return msg, nil
}
