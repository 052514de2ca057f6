// Package config handles parley configuration. Values come from, in order of
// precedence: explicit flag overrides, PARLEY_* environment variables,
// ~/.parley/config.yaml, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all parley configuration.
type Config struct {
	Ollama   OllamaConfig   `mapstructure:"ollama"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Research ResearchConfig `mapstructure:"research"`
	Tools    ToolsConfig    `mapstructure:"tools"`
}

// OllamaConfig configures the Ollama endpoint.
type OllamaConfig struct {
	URL       string        `mapstructure:"url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	KeepAlive string        `mapstructure:"keep_alive"`
}

// ChatConfig configures the agent loop.
type ChatConfig struct {
	PassCap      int            `mapstructure:"pass_cap"`
	SystemPrompt string         `mapstructure:"system_prompt"`
	Sampling     SamplingConfig `mapstructure:"sampling"`
}

// SamplingConfig tunes model sampling per chat pass.
type SamplingConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	NumCtx      int     `mapstructure:"num_ctx"`
	NumPredict  int     `mapstructure:"num_predict"`
	TopK        int     `mapstructure:"top_k"`
	TopP        float64 `mapstructure:"top_p"`
}

// ResearchConfig configures the retrieval backend used by search_web.
type ResearchConfig struct {
	QdrantHost        string  `mapstructure:"qdrant_host"`
	QdrantPort        int     `mapstructure:"qdrant_port"`
	Collection        string  `mapstructure:"collection"`
	EmbeddingEndpoint string  `mapstructure:"embedding_endpoint"`
	TopK              int     `mapstructure:"top_k"`
	MinScore          float32 `mapstructure:"min_score"`
}

// ToolsConfig configures tool exposure.
type ToolsConfig struct {
	// SchemaPath optionally points at a YAML file overriding tool schemas.
	SchemaPath string `mapstructure:"schema_path"`
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// Path returns the configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "qwen2.5:7b")
	v.SetDefault("ollama.timeout", "60s")
	v.SetDefault("ollama.keep_alive", "5m")

	v.SetDefault("chat.pass_cap", 5)
	v.SetDefault("chat.system_prompt", "You are parley, a concise terminal assistant. "+
		"Use the available tools when they help answer the question.")
	v.SetDefault("chat.sampling.temperature", 0.2)
	v.SetDefault("chat.sampling.num_ctx", 4096)
	v.SetDefault("chat.sampling.num_predict", 1024)
	v.SetDefault("chat.sampling.top_k", 40)
	v.SetDefault("chat.sampling.top_p", 0.9)

	v.SetDefault("research.qdrant_host", "localhost")
	v.SetDefault("research.qdrant_port", 6334)
	v.SetDefault("research.collection", "knowledge")
	v.SetDefault("research.embedding_endpoint", "http://localhost:8080/embed")
	v.SetDefault("research.top_k", 5)
	v.SetDefault("research.min_score", 0.5)

	v.SetDefault("tools.schema_path", "")
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load reads configuration from disk and the environment. A missing config
// file is not an error; defaults apply.
func Load() (Config, error) {
	v, err := newViper()
	if err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Set persists a single dotted key (for example "ollama.model") to the
// config file, creating the file if needed.
func Set(key, value string) error {
	v, err := newViper()
	if err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if !v.IsSet(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	v.Set(key, value)

	return write(v)
}

// Save writes the full configuration to disk.
func Save(cfg Config) error {
	v, err := newViper()
	if err != nil {
		return err
	}

	v.Set("ollama.url", cfg.Ollama.URL)
	v.Set("ollama.model", cfg.Ollama.Model)
	v.Set("ollama.timeout", cfg.Ollama.Timeout.String())
	v.Set("ollama.keep_alive", cfg.Ollama.KeepAlive)
	v.Set("chat.pass_cap", cfg.Chat.PassCap)
	v.Set("chat.system_prompt", cfg.Chat.SystemPrompt)
	v.Set("chat.sampling.temperature", cfg.Chat.Sampling.Temperature)
	v.Set("chat.sampling.num_ctx", cfg.Chat.Sampling.NumCtx)
	v.Set("chat.sampling.num_predict", cfg.Chat.Sampling.NumPredict)
	v.Set("chat.sampling.top_k", cfg.Chat.Sampling.TopK)
	v.Set("chat.sampling.top_p", cfg.Chat.Sampling.TopP)
	v.Set("research.qdrant_host", cfg.Research.QdrantHost)
	v.Set("research.qdrant_port", cfg.Research.QdrantPort)
	v.Set("research.collection", cfg.Research.Collection)
	v.Set("research.embedding_endpoint", cfg.Research.EmbeddingEndpoint)
	v.Set("research.top_k", cfg.Research.TopK)
	v.Set("research.min_score", cfg.Research.MinScore)
	v.Set("tools.schema_path", cfg.Tools.SchemaPath)

	return write(v)
}

func write(v *viper.Viper) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	path, err := Path()
	if err != nil {
		return err
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Exists returns true if the config file exists.
func Exists() bool {
	path, err := Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
