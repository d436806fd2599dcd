// Package retrieval ranks knowledge base rules against a planning request
// and applies the inclusion policy that decides which rules reach the prompt.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/raphaelgruber/replan-rag/internal/embedding"
	"github.com/raphaelgruber/replan-rag/internal/models"
)

// DefaultBatchSize is how many rules are embedded per request while
// building an index.
const DefaultBatchSize = 32

// IndexOptions configures NewIndex.
type IndexOptions struct {
	BatchSize int
	// OnBatch is called after each embedded batch with the number of rules
	// done so far.
	OnBatch func(done, total int)
}

// Index holds the rule corpus and one embedding per rule. It is never
// modified after NewIndex returns, so concurrent queries need no locking.
type Index struct {
	embedder embedding.Embedder
	rules    []models.Rule
	vectors  [][]float32
}

// NewIndex embeds the searchable text of every rule.
func NewIndex(ctx context.Context, embedder embedding.Embedder, rules []models.Rule, opts IndexOptions) (*Index, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	start := time.Now()
	ix := &Index{
		embedder: embedder,
		rules:    append([]models.Rule(nil), rules...),
		vectors:  make([][]float32, 0, len(rules)),
	}

	for i := 0; i < len(ix.rules); i += opts.BatchSize {
		end := min(i+opts.BatchSize, len(ix.rules))
		texts := make([]string, 0, end-i)
		for _, r := range ix.rules[i:end] {
			texts = append(texts, r.Searchable)
		}

		vecs, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed rules %d-%d: %w", i, end, err)
		}
		if len(vecs) != len(texts) {
			return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vecs), len(texts))
		}
		ix.vectors = append(ix.vectors, vecs...)

		if opts.OnBatch != nil {
			opts.OnBatch(end, len(ix.rules))
		}
	}

	slog.Info("rule index built",
		"rules", len(ix.rules),
		"model", embedder.Model(),
		"duration_ms", time.Since(start).Milliseconds())
	return ix, nil
}

// Rules returns a copy of the indexed rules in load order.
func (ix *Index) Rules() []models.Rule {
	return append([]models.Rule(nil), ix.rules...)
}

// Len returns the number of indexed rules.
func (ix *Index) Len() int {
	return len(ix.rules)
}

// RetrieveRelevantRules embeds query and returns the k most similar rules,
// best first. Equal scores keep load order. k <= 0 returns every rule.
func (ix *Index) RetrieveRelevantRules(ctx context.Context, query string, k int) ([]models.ScoredRule, error) {
	qvec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored := make([]models.ScoredRule, len(ix.rules))
	for i, r := range ix.rules {
		sim, err := embedding.CosineSimilarity(qvec, ix.vectors[i])
		if err != nil {
			return nil, fmt.Errorf("score rule %s: %w", r.ID, err)
		}
		scored[i] = models.ScoredRule{Rule: r, Score: &sim}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return *scored[a].Score > *scored[b].Score
	})

	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Find returns the first rule in load order that meets req.
func (ix *Index) Find(req Requirement) (models.Rule, bool) {
	for _, r := range ix.rules {
		if req.Matches(r) {
			return r, true
		}
	}
	return models.Rule{}, false
}
