package cmd

import (
	"fmt"
	"time"

	"github.com/killallgit/loom/pkg/checkpoint"
	"github.com/killallgit/loom/pkg/config"
	"github.com/killallgit/loom/pkg/graph"
	"github.com/killallgit/loom/pkg/llm"
	"github.com/killallgit/loom/pkg/logger"
	"github.com/killallgit/loom/pkg/tools"
)

// buildProvider registers every configured backend and returns the one the
// config selects as default.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	registry := llm.NewRegistry()

	if p, err := llm.NewOllama(cfg.Ollama.URL, cfg.Ollama.DefaultModel); err != nil {
		if cfg.Provider == "ollama" {
			return nil, fmt.Errorf("initializing ollama: %w", err)
		}
		logger.Warn("ollama provider unavailable: %v", err)
	} else if err := registry.Register(p.Name(), p); err != nil {
		return nil, err
	}

	if cfg.OpenAI.APIKey != "" {
		p, err := llm.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.DefaultModel)
		if err != nil {
			return nil, fmt.Errorf("initializing openai: %w", err)
		}
		if err := registry.Register(p.Name(), p); err != nil {
			return nil, err
		}
	} else if cfg.Provider == "openai" {
		return nil, fmt.Errorf("openai provider requires an api key")
	}

	if err := registry.SetDefault(cfg.Provider); err != nil {
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return registry.GetDefault()
}

// buildToolRegistry assembles the tool set from config: built-in tools, the
// note search tool when the knowledge store is enabled, and any remote
// endpoints.
func buildToolRegistry(cfg *config.Config) (*tools.Registry, error) {
	registry := tools.NewRegistry(cfg.ToolExecutionTimeout())
	if !cfg.Tools.Enabled {
		return registry, nil
	}

	if err := registry.Register(tools.NewCalculatorTool()); err != nil {
		return nil, err
	}
	if err := registry.Register(tools.NewClockTool()); err != nil {
		return nil, err
	}

	if cfg.Knowledge.Enabled {
		notes, err := tools.NewNotesTool(tools.NotesConfig{
			CollectionName:   cfg.Knowledge.Collection,
			PersistDirectory: cfg.Knowledge.PersistenceDir,
			EmbeddingFunc:    tools.OllamaEmbedder(cfg.Knowledge.Embedder.Model, cfg.Knowledge.Embedder.BaseURL),
		})
		if err != nil {
			// Knowledge store failure should not take the whole engine down
			logger.Warn("note search disabled: %v", err)
		} else if err := registry.Register(notes); err != nil {
			return nil, err
		}
	}

	for _, remote := range cfg.Tools.RemoteEndpoints {
		timeout, err := time.ParseDuration(remote.Timeout)
		if err != nil {
			timeout = 0
		}
		tool, err := tools.NewRemoteTool(tools.RemoteToolOptions{
			Name:        remote.Name,
			Description: remote.Description,
			Endpoint:    remote.URL,
			Timeout:     timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("remote tool %s: %w", remote.Name, err)
		}
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// buildEngine wires the provider, tools, and checkpoint store into an
// executor. The caller owns closing the returned store.
func buildEngine(cfg *config.Config) (*graph.Executor, checkpoint.Store, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing provider: %w", err)
	}

	registry, err := buildToolRegistry(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing tools: %w", err)
	}

	store, err := checkpoint.NewSQLiteStore(cfg.Checkpoint.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening checkpoint store: %w", err)
	}

	executor, err := graph.New(provider, registry, store,
		graph.WithMaxIterations(cfg.Tools.MaxIterations),
		graph.WithTurnTimeout(cfg.TurnTimeout()),
		graph.WithSystemPrompt(cfg.System.Prompt),
	)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("initializing executor: %w", err)
	}

	return executor, store, nil
}
