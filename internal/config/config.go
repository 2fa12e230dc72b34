// Package config loads kbchat settings from a YAML file, a .env file and
// KBCHAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. KBCHAT_LLM_API_KEY.
const EnvPrefix = "KBCHAT"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Prompt    PromptConfig    `mapstructure:"prompt"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	RateLimit      float64  `mapstructure:"rate_limit"` // requests per second per client, 0 disables
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// KnowledgeConfig selects where chunks come from.
type KnowledgeConfig struct {
	Type       string `mapstructure:"type"` // json, sqlite or qdrant
	Path       string `mapstructure:"path"` // file path or http(s) URL for json, file for sqlite
	Watch      bool   `mapstructure:"watch"`
	QdrantAddr string `mapstructure:"qdrant_addr"`
	Collection string `mapstructure:"collection"`
}

type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // sine or ollama
	Dimensions int    `mapstructure:"dimensions"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
}

type LLMConfig struct {
	Provider string `mapstructure:"provider"` // openai or ollama
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

type RetrievalConfig struct {
	TopN int `mapstructure:"top_n"`
}

type PromptConfig struct {
	System string `mapstructure:"system"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("knowledge.type", "json")
	v.SetDefault("knowledge.path", "kb_vectors.json")
	v.SetDefault("knowledge.watch", false)
	v.SetDefault("knowledge.qdrant_addr", "localhost:6334")
	v.SetDefault("knowledge.collection", "kbchat")
	v.SetDefault("embedding.provider", "sine")
	v.SetDefault("embedding.dimensions", 256)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("retrieval.top_n", 4)
	v.SetDefault("prompt.system", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	switch c.Knowledge.Type {
	case "json", "sqlite", "qdrant":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown knowledge.type '%s'", c.Knowledge.Type))
	}
	if c.Knowledge.Watch && c.Knowledge.Type != "json" {
		warnings = append(warnings, "knowledge.watch only applies to json knowledge files")
	}
	if c.Knowledge.Watch && (strings.HasPrefix(c.Knowledge.Path, "http://") || strings.HasPrefix(c.Knowledge.Path, "https://")) {
		warnings = append(warnings, "knowledge.watch is ignored for remote knowledge URLs")
	}

	switch c.Embedding.Provider {
	case "sine", "ollama":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown embedding.provider '%s'", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		warnings = append(warnings, fmt.Sprintf("embedding.dimensions %d must be positive", c.Embedding.Dimensions))
	}

	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			warnings = append(warnings, "LLM provider 'openai' is configured but api_key is empty")
		}
	case "ollama":
	default:
		warnings = append(warnings, fmt.Sprintf("unknown llm.provider '%s'", c.LLM.Provider))
	}

	if c.Retrieval.TopN < 0 {
		warnings = append(warnings, fmt.Sprintf("retrieval.top_n %d is negative, the default will be used", c.Retrieval.TopN))
	}
	if c.Server.RateLimit < 0 {
		warnings = append(warnings, fmt.Sprintf("server.rate_limit %.2f is negative", c.Server.RateLimit))
	}

	return warnings
}

// Load reads configuration. An empty path searches for kbchat.yaml in the
// working directory and ~/.kbchat; a missing file is not an error unless the
// path was given explicitly. A .env file in the working directory is applied
// first and never overrides variables already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("kbchat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.kbchat")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}
