package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/replan-rag/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completion is one generated response with its usage.
type Completion struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
	Duration     time.Duration
}

// Model generates replies with a langchaingo chat model using the sampling
// settings from configuration.
type Model struct {
	llm  llms.Model
	name string
	opts []llms.CallOption
}

// NewModel connects to cfg.LLMProvider. Hosted providers need their API
// key set.
func NewModel(cfg config.Config) (*Model, error) {
	model, err := chatModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s model: %w", cfg.LLMProvider, err)
	}
	return newModel(model, cfg), nil
}

func chatModel(cfg config.Config) (llms.Model, error) {
	switch cfg.LLMProvider {
	case config.ProviderOllama:
		return ollama.New(ollama.WithModel(cfg.LLMModel), ollama.WithServerURL(cfg.OllamaHost))
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("API key required")
		}
		return openai.New(openai.WithToken(cfg.OpenAIAPIKey), openai.WithModel(cfg.LLMModel))
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("API key required")
		}
		return anthropic.New(anthropic.WithToken(cfg.AnthropicAPIKey), anthropic.WithModel(cfg.LLMModel))
	}
	return nil, errors.New("unsupported LLM provider")
}

func newModel(model llms.Model, cfg config.Config) *Model {
	return &Model{
		llm:  model,
		name: cfg.LLMModel,
		opts: []llms.CallOption{
			llms.WithTemperature(cfg.Temperature),
			llms.WithTopP(cfg.TopP),
			llms.WithMaxTokens(cfg.MaxTokens),
		},
	}
}

// GenerateWithSystem sends a system and a user message and returns the
// first choice. Errors that retrying cannot fix wrap ErrFatalAPI.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (Completion, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}
	slog.Debug("generating plan", "model", m.name, "prompt_len", len(systemPrompt)+len(userPrompt))

	start := time.Now()
	resp, err := m.llm.GenerateContent(ctx, messages, m.opts...)
	elapsed := time.Since(start)
	if err != nil {
		slog.Warn("generation failed", "model", m.name, "duration_ms", elapsed.Milliseconds(), "error", err)
		return Completion{}, fmt.Errorf("generate: %w", wrapFatalError(err))
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("%s returned no choices", m.name)
	}

	choice := resp.Choices[0]
	c := Completion{Text: choice.Content, Duration: elapsed}
	c.InputTokens, c.OutputTokens = tokenUsage(choice.GenerationInfo)
	slog.Debug("generation complete", "model", m.name, "duration_ms", elapsed.Milliseconds(),
		"input_tokens", c.InputTokens, "output_tokens", c.OutputTokens)
	return c, nil
}

// Model returns the configured model name.
func (m *Model) Model() string { return m.name }

// tokenUsage reads token counts from provider generation info. Providers
// disagree on key names.
func tokenUsage(info map[string]any) (in, out int64) {
	in = firstInt(info, "PromptTokens", "InputTokens", "prompt_tokens", "input_tokens")
	out = firstInt(info, "CompletionTokens", "OutputTokens", "completion_tokens", "output_tokens")
	return in, out
}

func firstInt(info map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}
