package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/replan-rag/internal/models"
	"github.com/raphaelgruber/replan-rag/internal/scenario"
)

// DefaultTopK is the selection bound used when callers pass k <= 0.
const DefaultTopK = 5

// candidateSlack is how many ranked candidates beyond k feed the filter.
const candidateSlack = 2

// Selection is the outcome of RetrieveAndFilterRules.
type Selection struct {
	Classification scenario.Classification `json:"classification"`
	Query          string                  `json:"query"`
	Rules          []models.ScoredRule     `json:"rules"`
}

// Retriever combines the scenario classifier with the rule index.
type Retriever struct {
	index      *Index
	classifier *scenario.Classifier
	logger     *slog.Logger
}

// NewRetriever creates a retriever over index. A nil logger uses the
// default logger.
func NewRetriever(index *Index, classifier *scenario.Classifier, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{index: index, classifier: classifier, logger: logger}
}

// Index returns the underlying rule index.
func (r *Retriever) Index() *Index {
	return r.index
}

// RetrieveAndFilterRules classifies the request, ranks k+2 candidate rules
// and applies the inclusion policy.
func (r *Retriever) RetrieveAndFilterRules(ctx context.Context, target, current *models.Structure, k int) (*Selection, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	start := time.Now()

	cls, err := r.classifier.Classify(ctx, target, current)
	if err != nil {
		return nil, fmt.Errorf("classify scenario: %w", err)
	}

	query := BuildQuery(cls.Scenario, target, current)
	candidates, err := r.index.RetrieveRelevantRules(ctx, query, k+candidateSlack)
	if err != nil {
		return nil, fmt.Errorf("retrieve rules: %w", err)
	}

	rules := FilterRules(candidates, r.index.Find, target, current, k)

	r.logger.Debug("rules selected",
		"scenario", cls.Scenario,
		"candidates", len(candidates),
		"selected", len(rules),
		"duration_ms", time.Since(start).Milliseconds())

	return &Selection{
		Classification: cls,
		Query:          query,
		Rules:          rules,
	}, nil
}
