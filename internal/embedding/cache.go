package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores embedding vectors on disk, one file per (model, text) pair.
// Files hold little-endian float32 values.
type Cache struct {
	dir string
}

// NewCache creates a cache rooted at dir, creating the directory if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, name[:2], name+".vec")
}

// Get returns the cached vector for text, or false when it is missing or
// does not have the expected dimension.
func (c *Cache) Get(model, text string, dimension int) ([]float32, bool) {
	data, err := os.ReadFile(c.path(model, text))
	if err != nil || len(data) != dimension*4 {
		return nil, false
	}
	vec := make([]float32, dimension)
	if _, err := binary.Decode(data, binary.LittleEndian, vec); err != nil {
		return nil, false
	}
	return vec, true
}

// Put writes vec for text. The file is written to a temporary name and
// renamed so readers never see a partial vector.
func (c *Cache) Put(model, text string, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("embedding vector cannot be empty")
	}
	p := c.path(model, text)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create cache shard: %w", err)
	}

	data, err := binary.Append(nil, binary.LittleEndian, vec)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write embedding: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("commit embedding: %w", err)
	}
	return nil
}

// CachedEmbedder serves vectors from a Cache and only sends misses to the
// wrapped Embedder.
type CachedEmbedder struct {
	next  Embedder
	cache *Cache
}

// Compile-time check that CachedEmbedder implements Embedder.
var _ Embedder = (*CachedEmbedder)(nil)

// WithCache wraps next so its vectors are persisted in cache.
func WithCache(next Embedder, cache *Cache) *CachedEmbedder {
	return &CachedEmbedder{next: next, cache: cache}
}

// Model returns the wrapped model name.
func (e *CachedEmbedder) Model() string { return e.next.Model() }

// Dimension returns the wrapped dimension.
func (e *CachedEmbedder) Dimension() int { return e.next.Dimension() }

// Embed returns the cached vector or embeds and stores it.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all cache misses in one call to the wrapped Embedder.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, t := range texts {
		if vec, ok := e.cache.Get(e.Model(), t, e.Dimension()); ok {
			out[i] = vec
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vecs, err := e.next.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missing) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vecs), len(missing))
	}
	for j, vec := range vecs {
		out[missingIdx[j]] = vec
		if err := e.cache.Put(e.Model(), missing[j], vec); err != nil {
			return nil, err
		}
	}
	return out, nil
}
