// Package config loads replan settings from defaults, an optional TOML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ProviderType names an embedding or LLM backend.
type ProviderType string

const (
	ProviderOllama    ProviderType = "ollama"
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderVoyage    ProviderType = "voyage"
	ProviderHash      ProviderType = "hash"
)

// EnvPrefix prefixes every environment override, e.g. REPLAN_RETRIEVAL_TOP_K.
const EnvPrefix = "REPLAN"

// Config holds all configuration values.
type Config struct {
	// Knowledge base directory; empty uses the built-in corpus.
	KnowledgeBaseDir string

	// Embeddings
	EmbedProvider  ProviderType
	EmbedModel     string
	EmbedDimension int
	CacheDir       string

	// Generation
	LLMProvider ProviderType
	LLMModel    string
	Temperature float64
	TopP        float64
	MaxTokens   int
	MaxAttempts int

	// Retrieval
	TopK                int
	SimilarityThreshold float64

	// Provider endpoints and credentials
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	VoyageAPIKey    string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// ConfigFileUsed is the file settings were read from, if any.
	ConfigFileUsed string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("knowledge_base.dir", "")

	v.SetDefault("embedding.provider", string(ProviderOllama))
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimension", 0)
	v.SetDefault("embedding.cache_dir", defaultCacheDir())

	v.SetDefault("llm.provider", string(ProviderOllama))
	v.SetDefault("llm.model", "qwen3:4b")
	v.SetDefault("generation.temperature", 0.3)
	v.SetDefault("generation.top_p", 0.9)
	v.SetDefault("generation.max_tokens", 4096)
	v.SetDefault("generation.max_attempts", 1)

	v.SetDefault("retrieval.top_k", 5)
	v.SetDefault("retrieval.threshold", 0.7)

	v.SetDefault("ollama.host", "http://localhost:11434")

	v.SetDefault("log.file", filepath.Join(os.TempDir(), "replan.log"))
	v.SetDefault("log.level", "INFO")
}

// Load reads configuration. configFile may be empty, in which case
// $HOME/.config/replan/config.toml is used when it exists.
func Load(configFile string) (Config, error) {
	return LoadWith(viper.New(), configFile)
}

// LoadWith reads configuration into v.
func LoadWith(v *viper.Viper, configFile string) (Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional provider variables, without the prefix.
	for key, env := range map[string]string{
		"ollama.host":       "OLLAMA_HOST",
		"openai.api_key":    "OPENAI_API_KEY",
		"anthropic.api_key": "ANTHROPIC_API_KEY",
		"voyage.api_key":    "VOYAGE_API_KEY",
	} {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "replan"))
		}
		v.SetConfigType("toml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		KnowledgeBaseDir: v.GetString("knowledge_base.dir"),

		EmbedProvider:  ProviderType(strings.ToLower(v.GetString("embedding.provider"))),
		EmbedModel:     v.GetString("embedding.model"),
		EmbedDimension: v.GetInt("embedding.dimension"),
		CacheDir:       v.GetString("embedding.cache_dir"),

		LLMProvider: ProviderType(strings.ToLower(v.GetString("llm.provider"))),
		LLMModel:    v.GetString("llm.model"),
		Temperature: v.GetFloat64("generation.temperature"),
		TopP:        v.GetFloat64("generation.top_p"),
		MaxTokens:   v.GetInt("generation.max_tokens"),
		MaxAttempts: v.GetInt("generation.max_attempts"),

		TopK:                v.GetInt("retrieval.top_k"),
		SimilarityThreshold: v.GetFloat64("retrieval.threshold"),

		OllamaHost:      v.GetString("ollama.host"),
		OpenAIAPIKey:    v.GetString("openai.api_key"),
		AnthropicAPIKey: v.GetString("anthropic.api_key"),
		VoyageAPIKey:    v.GetString("voyage.api_key"),

		LogFile:  v.GetString("log.file"),
		LogLevel: parseLogLevel(v.GetString("log.level")),

		ConfigFileUsed: v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.TopK <= 0:
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.TopK)
	case c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1:
		return fmt.Errorf("retrieval.threshold must be within [-1, 1], got %g", c.SimilarityThreshold)
	case c.MaxAttempts < 1:
		return fmt.Errorf("generation.max_attempts must be at least 1, got %d", c.MaxAttempts)
	case c.MaxTokens <= 0:
		return fmt.Errorf("generation.max_tokens must be positive, got %d", c.MaxTokens)
	case c.EmbedDimension < 0:
		return fmt.Errorf("embedding.dimension must not be negative, got %d", c.EmbedDimension)
	}
	return nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "replan", "embeddings")
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
