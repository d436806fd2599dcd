package embedding_test

import (
	"context"
	"testing"

	"github.com/raphaelgruber/replan-rag/internal/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOllamaClient(t *testing.T) {
	tests := []struct {
		name      string
		host      string
		model     string
		dims      int
		wantModel string
		wantDims  int
		wantErr   bool
	}{
		{"defaults from environment", "", "", 0, embedding.DefaultOllamaModel, embedding.DefaultOllamaDimension, false},
		{"explicit host and model", "http://127.0.0.1:11434", "nomic-embed-text", 768, "nomic-embed-text", 768, false},
		{"malformed host", "://bad", "", 0, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := embedding.NewOllamaClient(tt.host, tt.model, tt.dims)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, c.Model())
			assert.Equal(t, tt.wantDims, c.Dimension())

			vecs, err := c.EmbedBatch(context.Background(), nil)
			require.NoError(t, err, "empty batch never reaches the server")
			assert.Empty(t, vecs)
		})
	}
}

func TestNewEmbedderFactory(t *testing.T) {
	tests := []struct {
		name      string
		cfg       embedding.Config
		wantModel string
		wantErr   bool
	}{
		{"default is ollama", embedding.Config{}, embedding.DefaultOllamaModel, false},
		{"ollama", embedding.Config{Provider: embedding.ProviderOllama}, embedding.DefaultOllamaModel, false},
		{"hash", embedding.Config{Provider: embedding.ProviderHash}, embedding.HashModel, false},
		{"voyage", embedding.Config{Provider: embedding.ProviderVoyage, VoyageAPIKey: "k"}, embedding.DefaultVoyageModel, false},
		{"voyage without key", embedding.Config{Provider: embedding.ProviderVoyage}, "", true},
		{"unknown", embedding.Config{Provider: "bert"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder, err := embedding.New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, embedder.Model())
		})
	}
}
