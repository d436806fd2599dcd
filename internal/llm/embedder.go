// Package llm provides text generation and embeddings using langchaingo.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/replan-rag/internal/config"
	"github.com/raphaelgruber/replan-rag/internal/embedding"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Default OpenAI embedding settings.
const (
	DefaultOpenAIEmbedModel     = "text-embedding-3-small"
	DefaultOpenAIEmbedDimension = 1536
)

// Embedder adapts a langchaingo embedder to embedding.Embedder and checks
// every returned vector against the configured dimension.
type Embedder struct {
	inner embeddings.Embedder
	name  string
	dims  int
}

var _ embedding.Embedder = (*Embedder)(nil)

// NewEmbedder builds an embedder for cfg.EmbedProvider. Only ollama and
// openai go through langchaingo.
func NewEmbedder(cfg config.Config) (*Embedder, error) {
	client, name, dims, err := embeddingClient(cfg)
	if err != nil {
		return nil, err
	}
	inner, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("%s embedder: %w", cfg.EmbedProvider, err)
	}
	return &Embedder{inner: inner, name: name, dims: dims}, nil
}

// embeddingClient returns the provider client plus the effective model
// name and dimension.
func embeddingClient(cfg config.Config) (embeddings.EmbedderClient, string, int, error) {
	name, dims := cfg.EmbedModel, cfg.EmbedDimension

	switch cfg.EmbedProvider {
	case config.ProviderOllama:
		name = orDefault(name, embedding.DefaultOllamaModel)
		if dims == 0 {
			dims = embedding.DefaultOllamaDimension
		}
		client, err := ollama.New(ollama.WithModel(name), ollama.WithServerURL(cfg.OllamaHost))
		if err != nil {
			return nil, "", 0, fmt.Errorf("ollama client: %w", err)
		}
		return client, name, dims, nil

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, "", 0, fmt.Errorf("openai embeddings need an API key")
		}
		name = orDefault(name, DefaultOpenAIEmbedModel)
		if dims == 0 {
			dims = DefaultOpenAIEmbedDimension
		}
		client, err := openai.New(openai.WithToken(cfg.OpenAIAPIKey), openai.WithEmbeddingModel(name))
		if err != nil {
			return nil, "", 0, fmt.Errorf("openai client: %w", err)
		}
		return client, name, dims, nil
	}
	return nil, "", 0, fmt.Errorf("embedding provider %q is not served by langchaingo", cfg.EmbedProvider)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (e *Embedder) Model() string  { return e.name }
func (e *Embedder) Dimension() int { return e.dims }

// Embed embeds one text as a batch of one.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in a single provider call. Fatal provider errors
// are tagged with ErrFatalAPI.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	vecs, err := e.inner.EmbedDocuments(ctx, texts)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		slog.Warn("embedding failed", "model", e.name, "texts", len(texts), "duration_ms", elapsed, "error", err)
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), wrapFatalError(err))
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%s returned %d vectors for %d texts", e.name, len(vecs), len(texts))
	}
	for i, v := range vecs {
		if len(v) != e.dims {
			return nil, fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), e.dims)
		}
	}

	slog.Debug("embedding complete", "model", e.name, "texts", len(texts), "duration_ms", elapsed)
	return vecs, nil
}
