// Package scenario labels a (target, current) structure pair with the
// scenario that best describes the work needed to reconcile them.
package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/replan-rag/internal/embedding"
	"github.com/raphaelgruber/replan-rag/internal/models"
)

// DefaultThreshold is the similarity below which a structural replacement
// grade overrides the embedding winner.
const DefaultThreshold = 0.7

// Options configures a Classifier.
type Options struct {
	// Threshold defaults to DefaultThreshold when zero.
	Threshold float64
	// Templates defaults to DefaultTemplates when empty.
	Templates []Template
	Logger    *slog.Logger
}

// Classification is the classifier's verdict with its diagnostic trace.
type Classification struct {
	Scenario        models.Scenario        `json:"scenario"`
	Similarity      float64                `json:"similarity"`
	ReplacementType models.ReplacementType `json:"replacement_type"`
	Overridden      bool                   `json:"overridden"`
	Query           string                 `json:"query"`
}

type templateVectors struct {
	scenario models.Scenario
	vectors  [][]float32
}

// Classifier embeds the template bank once and scores queries against it.
// It is safe for concurrent use.
type Classifier struct {
	embedder  embedding.Embedder
	templates []templateVectors
	threshold float64
	logger    *slog.Logger
}

// NewClassifier embeds every template phrase in a single batch.
func NewClassifier(ctx context.Context, embedder embedding.Embedder, opts Options) (*Classifier, error) {
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if len(opts.Templates) == 0 {
		opts.Templates = DefaultTemplates
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var phrases []string
	for _, t := range opts.Templates {
		if len(t.Phrases) == 0 {
			return nil, fmt.Errorf("template %s has no phrases", t.Scenario)
		}
		phrases = append(phrases, t.Phrases...)
	}

	vecs, err := embedder.EmbedBatch(ctx, phrases)
	if err != nil {
		return nil, fmt.Errorf("embed scenario templates: %w", err)
	}
	if len(vecs) != len(phrases) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vecs), len(phrases))
	}

	templates := make([]templateVectors, 0, len(opts.Templates))
	offset := 0
	for _, t := range opts.Templates {
		templates = append(templates, templateVectors{
			scenario: t.Scenario,
			vectors:  vecs[offset : offset+len(t.Phrases)],
		})
		offset += len(t.Phrases)
	}

	return &Classifier{
		embedder:  embedder,
		templates: templates,
		threshold: opts.Threshold,
		logger:    opts.Logger,
	}, nil
}

// Classify picks the scenario whose best phrase is most similar to the
// query built from target and current. When the winner scores below the
// threshold and the structures show a stack replacement or extension, the
// structural grade decides instead.
func (c *Classifier) Classify(ctx context.Context, target, current *models.Structure) (Classification, error) {
	rtype := AnalyzeReplacementComplexity(target, current)
	query := BuildQuery(target, current, rtype)

	qvec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return Classification{}, fmt.Errorf("embed scenario query: %w", err)
	}

	best := models.ScenarioStackedBuilding
	bestSim := -1.0
	for _, t := range c.templates {
		for _, v := range t.vectors {
			sim, err := embedding.CosineSimilarity(qvec, v)
			if err != nil {
				return Classification{}, fmt.Errorf("score template %s: %w", t.scenario, err)
			}
			if sim > bestSim {
				bestSim = sim
				best = t.scenario
			}
		}
	}

	result := Classification{
		Scenario:        best,
		Similarity:      bestSim,
		ReplacementType: rtype,
		Query:           query,
	}
	if bestSim < c.threshold {
		if s, ok := rtype.Scenario(); ok {
			result.Scenario = s
			result.Overridden = true
		}
	}

	c.logger.Info("scenario classified",
		"scenario", result.Scenario,
		"similarity", fmt.Sprintf("%.3f", result.Similarity),
		"replacement_type", result.ReplacementType,
		"overridden", result.Overridden)

	return result, nil
}
