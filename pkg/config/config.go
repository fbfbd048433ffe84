package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Provider   string           `mapstructure:"provider"` // Selected provider: ollama, openai
	Ollama     OllamaConfig     `mapstructure:"ollama"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Knowledge  KnowledgeConfig  `mapstructure:"knowledge"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	System     SystemConfig     `mapstructure:"system"`
}

// OllamaConfig holds Ollama provider configuration
type OllamaConfig struct {
	URL          string `mapstructure:"url"`
	DefaultModel string `mapstructure:"default_model"`
	Timeout      int    `mapstructure:"timeout"` // seconds
}

// OpenAIConfig holds OpenAI provider configuration
type OpenAIConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	DefaultModel string `mapstructure:"default_model"`
}

// ToolsConfig holds tool execution configuration
type ToolsConfig struct {
	Enabled          bool               `mapstructure:"enabled"`
	MaxIterations    int                `mapstructure:"max_iterations"`
	ExecutionTimeout string             `mapstructure:"execution_timeout"`
	RemoteEndpoints  []RemoteToolConfig `mapstructure:"remote_endpoints"`
}

// RemoteToolConfig describes one remote HTTP tool endpoint
type RemoteToolConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	URL         string `mapstructure:"url"`
	Timeout     string `mapstructure:"timeout"`
}

// CheckpointConfig holds checkpoint persistence configuration
type CheckpointConfig struct {
	Path string `mapstructure:"path"`
}

// KnowledgeConfig holds the note search tool configuration
type KnowledgeConfig struct {
	Enabled        bool           `mapstructure:"enabled"`
	Collection     string         `mapstructure:"collection"`
	PersistenceDir string         `mapstructure:"persistence_dir"`
	Embedder       EmbedderConfig `mapstructure:"embedder"`
}

// EmbedderConfig holds embedder configuration for the knowledge store
type EmbedderConfig struct {
	Provider string `mapstructure:"provider"` // ollama, openai
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
}

// ServerConfig holds session server configuration
type ServerConfig struct {
	Listen      string `mapstructure:"listen"`
	TurnTimeout string `mapstructure:"turn_timeout"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile  string `mapstructure:"log_file"`
	Preserve bool   `mapstructure:"preserve"`
	Level    string `mapstructure:"level"`
}

// SystemConfig holds the system prompt injected at thread start
type SystemConfig struct {
	Prompt string `mapstructure:"prompt"`
}

var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.loom") // project directory first
		viper.AddConfigPath(filepath.Join(xdgConfigHome, "loom"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.SetEnvPrefix("LOOM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults and env apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	loaded := &Config{}
	if err := viper.Unmarshal(loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg = loaded
	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("provider", "ollama")

	viper.SetDefault("ollama.url", "http://localhost:11434")
	viper.SetDefault("ollama.default_model", "qwen3:latest")
	viper.SetDefault("ollama.timeout", 90)

	viper.SetDefault("openai.base_url", "")
	viper.SetDefault("openai.default_model", "gpt-4o-mini")

	viper.SetDefault("tools.enabled", true)
	viper.SetDefault("tools.max_iterations", 10)
	viper.SetDefault("tools.execution_timeout", "30s")

	viper.SetDefault("checkpoint.path", "./.loom/checkpoints.db")

	viper.SetDefault("knowledge.enabled", false)
	viper.SetDefault("knowledge.collection", "notes")
	viper.SetDefault("knowledge.persistence_dir", "./.loom/knowledge")
	viper.SetDefault("knowledge.embedder.provider", "ollama")
	viper.SetDefault("knowledge.embedder.model", "nomic-embed-text")
	viper.SetDefault("knowledge.embedder.base_url", "http://localhost:11434")

	viper.SetDefault("server.listen", "127.0.0.1:8420")
	viper.SetDefault("server.turn_timeout", "5m")

	viper.SetDefault("logging.log_file", "./.loom/system.log")
	viper.SetDefault("logging.preserve", true)
	viper.SetDefault("logging.level", "info")

	viper.SetDefault("system.prompt", "")
}

// ToolExecutionTimeout parses the configured tool timeout, falling back to
// 30s on a malformed value.
func (c *Config) ToolExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Tools.ExecutionTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// TurnTimeout parses the configured per-turn wall clock limit, falling back
// to 5m on a malformed value.
func (c *Config) TurnTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.TurnTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// BuildSettingsPath resolves a file name under the project settings directory.
func BuildSettingsPath(filename string) string {
	return filepath.Join("./.loom", filename)
}
