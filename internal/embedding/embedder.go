// Package embedding turns rule text and queries into vectors.
//
// Backends: a local Ollama server, the Voyage AI API, and an offline
// feature-hashing embedder for tests and air-gapped runs. Any backend can
// be wrapped with a disk cache.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces fixed-dimension vectors. Vectors from one Embedder are
// compared with each other for the lifetime of the process, so an
// implementation must not change model mid-run.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Model() string
	Dimension() int
}

// ProviderType names an embedding backend.
type ProviderType string

const (
	ProviderOllama ProviderType = "ollama"
	ProviderVoyage ProviderType = "voyage"
	ProviderHash   ProviderType = "hash"
)

// Config selects and parameterizes a backend. Zero Model and
// ExpectedDimension mean the backend default.
type Config struct {
	Provider          ProviderType
	Model             string
	ExpectedDimension int

	VoyageAPIKey string
	OllamaHost   string // $OLLAMA_HOST when empty
}

// New builds the backend cfg names. An empty provider means Ollama.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "", ProviderOllama:
		return NewOllamaClient(cfg.OllamaHost, cfg.Model, cfg.ExpectedDimension)
	case ProviderVoyage:
		if cfg.VoyageAPIKey == "" {
			return nil, fmt.Errorf("voyage embeddings need an API key")
		}
		return NewVoyageClient(cfg.VoyageAPIKey, cfg.Model, cfg.ExpectedDimension)
	case ProviderHash:
		return NewHashEmbedder(cfg.ExpectedDimension), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
}
