package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// Defaults for the local Ollama backend.
const (
	DefaultOllamaModel     = "all-minilm:l6-v2"
	DefaultOllamaDimension = 384
)

// OllamaClient embeds text with a local Ollama server.
type OllamaClient struct {
	api   *api.Client
	model string
	dims  int
}

var _ Embedder = (*OllamaClient)(nil)

// NewOllamaClient connects to host, or to $OLLAMA_HOST when host is empty.
// Zero values for model and dims select the MiniLM defaults.
func NewOllamaClient(host, model string, dims int) (*OllamaClient, error) {
	c := &OllamaClient{model: model, dims: dims}
	if c.model == "" {
		c.model = DefaultOllamaModel
	}
	if c.dims == 0 {
		c.dims = DefaultOllamaDimension
	}

	if host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama client from environment: %w", err)
		}
		c.api = client
		return c, nil
	}

	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("ollama host %q: %w", host, err)
	}
	c.api = api.NewClient(base, http.DefaultClient)
	return c, nil
}

func (c *OllamaClient) Model() string  { return c.model }
func (c *OllamaClient) Dimension() int { return c.dims }

// Embed returns the vector for a single text.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.embed(ctx, text, 1)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends all texts in one request.
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return c.embed(ctx, texts, len(texts))
}

// embed calls /api/embed and checks the response shape. input is a string
// or a []string, as the Ollama API accepts either.
func (c *OllamaClient) embed(ctx context.Context, input any, want int) ([][]float32, error) {
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{Model: c.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("ollama embed (%s): %w", c.model, err)
	}
	if len(resp.Embeddings) != want {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), want)
	}
	for i, v := range resp.Embeddings {
		if len(v) != c.dims {
			return nil, fmt.Errorf("embedding %d has %d dimensions, model %s configured for %d", i, len(v), c.model, c.dims)
		}
	}
	return resp.Embeddings, nil
}
