package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty directory so a developer's own config
// file does not leak into tests.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"OLLAMA_HOST", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "VOYAGE_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.EmbedProvider)
	assert.Equal(t, ProviderOllama, cfg.LLMProvider)
	assert.Equal(t, 0.3, cfg.Temperature)
	assert.Equal(t, 0.9, cfg.TopP)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 0.7, cfg.SimilarityThreshold)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaHost)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.KnowledgeBaseDir)
	assert.Empty(t, cfg.ConfigFileUsed)
}

func TestLoadEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("REPLAN_RETRIEVAL_TOP_K", "8")
	t.Setenv("REPLAN_EMBEDDING_PROVIDER", "HASH")
	t.Setenv("REPLAN_LOG_LEVEL", "debug")
	t.Setenv("OLLAMA_HOST", "http://ollama:11434")
	t.Setenv("VOYAGE_API_KEY", "vk")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.TopK)
	assert.Equal(t, ProviderHash, cfg.EmbedProvider)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "http://ollama:11434", cfg.OllamaHost)
	assert.Equal(t, "vk", cfg.VoyageAPIKey)
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "replan.toml")
	content := `
[knowledge_base]
dir = "/srv/kb"

[llm]
provider = "anthropic"
model = "claude-test"

[retrieval]
threshold = 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/kb", cfg.KnowledgeBaseDir)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, "claude-test", cfg.LLMModel)
	assert.Equal(t, 0.5, cfg.SimilarityThreshold)
	assert.Equal(t, path, cfg.ConfigFileUsed)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "missing explicit file", file: "/does/not/exist.toml"},
		{name: "zero top k", env: map[string]string{"REPLAN_RETRIEVAL_TOP_K": "0"}},
		{name: "threshold out of range", env: map[string]string{"REPLAN_RETRIEVAL_THRESHOLD": "1.5"}},
		{name: "zero attempts", env: map[string]string{"REPLAN_GENERATION_MAX_ATTEMPTS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.file)
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("scenario classified", "scenario", "stack_replacement_bottom")

	assert.Contains(t, stderr.String(), "scenario=stack_replacement_bottom")
	assert.Contains(t, file.String(), `"scenario":"stack_replacement_bottom"`)
	assert.NotContains(t, stderr.String(), "hidden")
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replan.log")
	logger, cleanup := SetupLogger(path, slog.LevelInfo)
	logger.Info("hello")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
