package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Defaults for the Voyage AI backend.
const (
	DefaultVoyageModel     = "voyage-3"
	DefaultVoyageDimension = 1024
	VoyageAPIEndpoint      = "https://api.voyageai.com/v1/embeddings"
)

// VoyageClient embeds text through the Voyage AI HTTP API.
type VoyageClient struct {
	key      string
	model    string
	dims     int
	endpoint string
	http     *http.Client
}

var _ Embedder = (*VoyageClient)(nil)

// NewVoyageClient returns a client for apiKey. Zero values for model and
// dims select voyage-3.
func NewVoyageClient(apiKey, model string, dims int) (*VoyageClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("voyage: API key required")
	}
	c := &VoyageClient{key: apiKey, model: model, dims: dims, endpoint: VoyageAPIEndpoint, http: &http.Client{}}
	if c.model == "" {
		c.model = DefaultVoyageModel
	}
	if c.dims == 0 {
		c.dims = DefaultVoyageDimension
	}
	return c, nil
}

// WithEndpoint sends requests to endpoint instead of the public API.
func (c *VoyageClient) WithEndpoint(endpoint string) *VoyageClient {
	c.endpoint = endpoint
	return c
}

func (c *VoyageClient) Model() string  { return c.model }
func (c *VoyageClient) Dimension() int { return c.dims }

type voyageRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type,omitempty"`
}

// voyageItem is one entry of the response "data" array. Items may arrive
// in any order; Index refers to the request input.
type voyageItem struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// Embed embeds one text as a batch of one.
func (c *VoyageClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in a single API call and returns the vectors in
// input order.
func (c *VoyageClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	items, err := c.post(ctx, voyageRequest{Input: texts, Model: c.model, InputType: "document"})
	if err != nil {
		return nil, err
	}
	if len(items) != len(texts) {
		return nil, fmt.Errorf("voyage returned %d embeddings for %d inputs", len(items), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, it := range items {
		switch {
		case it.Index < 0 || it.Index >= len(out):
			return nil, fmt.Errorf("voyage returned out-of-range index %d", it.Index)
		case len(it.Embedding) != c.dims:
			return nil, fmt.Errorf("embedding %d has %d dimensions, want %d", it.Index, len(it.Embedding), c.dims)
		}
		out[it.Index] = it.Embedding
	}
	return out, nil
}

func (c *VoyageClient) post(ctx context.Context, body voyageRequest) ([]voyageItem, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode voyage request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build voyage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voyage request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("voyage API error (status %d): %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var decoded struct {
		Data []voyageItem `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode voyage response: %w", err)
	}
	return decoded.Data, nil
}
