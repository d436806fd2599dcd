package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const (
	// HashModel is the model name reported by the hashing embedder.
	HashModel = "feature-hash"

	// DefaultHashDimension is the hashing embedder's default vector size.
	DefaultHashDimension = 384
)

// HashEmbedder embeds text by hashing lowercase word tokens into a fixed
// number of buckets and normalizing the counts. It needs no server, is fully
// deterministic, and ranks texts by shared vocabulary.
type HashEmbedder struct {
	dimension int
}

// Compile-time check that HashEmbedder implements Embedder.
var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a hashing embedder. A dimension of 0 uses
// DefaultHashDimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Model returns HashModel.
func (h *HashEmbedder) Model() string { return HashModel }

// Dimension returns the number of hash buckets.
func (h *HashEmbedder) Dimension() int { return h.dimension }

// Embed hashes a single text.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.vector(text), nil
}

// EmbedBatch hashes every text.
func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dimension)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		v[f.Sum32()%uint32(h.dimension)]++
	}
	Normalize(v)
	return v
}
