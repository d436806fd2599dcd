// Package service wires the knowledge base, embedder, classifier, retriever
// and generator into the replanning pipeline.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/replan-rag/internal/config"
	"github.com/raphaelgruber/replan-rag/internal/embedding"
	"github.com/raphaelgruber/replan-rag/internal/knowledge"
	"github.com/raphaelgruber/replan-rag/internal/llm"
	"github.com/raphaelgruber/replan-rag/internal/metrics"
	"github.com/raphaelgruber/replan-rag/internal/prompt"
	"github.com/raphaelgruber/replan-rag/internal/retrieval"
	"github.com/raphaelgruber/replan-rag/internal/scenario"
)

// NewEmbedder creates the configured embedding provider. Ollama, Voyage and
// hash use the native clients, OpenAI goes through langchaingo. Vectors are
// cached on disk when cfg.CacheDir is set, except for the hash provider,
// which is cheaper to recompute than to read.
func NewEmbedder(cfg config.Config) (embedding.Embedder, error) {
	var (
		emb embedding.Embedder
		err error
	)

	switch cfg.EmbedProvider {
	case config.ProviderOpenAI:
		emb, err = llm.NewEmbedder(cfg)
	case config.ProviderOllama, config.ProviderVoyage, config.ProviderHash, "":
		emb, err = embedding.New(embedding.Config{
			Provider:          embedding.ProviderType(cfg.EmbedProvider),
			Model:             cfg.EmbedModel,
			ExpectedDimension: cfg.EmbedDimension,
			VoyageAPIKey:      cfg.VoyageAPIKey,
			OllamaHost:        cfg.OllamaHost,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbedProvider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheDir == "" || cfg.EmbedProvider == config.ProviderHash {
		return emb, nil
	}
	cache, err := embedding.NewCache(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return embedding.WithCache(emb, cache), nil
}

// timedEmbedder records every embedding call in a metrics collector.
type timedEmbedder struct {
	embedding.Embedder
	metrics *metrics.Collector
}

func (e timedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	defer e.metrics.Time(metrics.OpEmbedding)()
	return e.Embedder.Embed(ctx, text)
}

func (e timedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	defer e.metrics.Time(metrics.OpEmbedding)()
	return e.Embedder.EmbedBatch(ctx, texts)
}

// PipelineOptions configures NewPipeline.
type PipelineOptions struct {
	Metrics *metrics.Collector
	Logger  *slog.Logger

	// OnIndexBatch reports rule indexing progress.
	OnIndexBatch func(done, total int)
}

// Pipeline is the retrieval side of replanning: everything needed to turn
// a (target, current) pair into a rule selection and prompts.
type Pipeline struct {
	Knowledge  *knowledge.Base
	Embedder   embedding.Embedder
	Index      *retrieval.Index
	Classifier *scenario.Classifier
	Retriever  *retrieval.Retriever
	Prompts    *prompt.Builder
}

// NewPipeline loads the knowledge base, embeds the rule corpus and the
// classifier templates, and returns the ready pipeline.
func NewPipeline(ctx context.Context, cfg config.Config, opts PipelineOptions) (*Pipeline, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	base, err := knowledge.LoadDir(cfg.KnowledgeBaseDir)
	if err != nil {
		return nil, fmt.Errorf("load knowledge base: %w", err)
	}

	emb, err := NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	return NewPipelineWith(ctx, base, emb, cfg.SimilarityThreshold, opts)
}

// NewPipelineWith builds a pipeline from an already loaded knowledge base
// and embedder.
func NewPipelineWith(ctx context.Context, base *knowledge.Base, emb embedding.Embedder, threshold float64, opts PipelineOptions) (*Pipeline, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics != nil {
		emb = timedEmbedder{Embedder: emb, metrics: opts.Metrics}
	}

	start := time.Now()
	index, err := retrieval.NewIndex(ctx, emb, base.Rules, retrieval.IndexOptions{OnBatch: opts.OnIndexBatch})
	if err != nil {
		return nil, fmt.Errorf("build rule index: %w", err)
	}

	classifier, err := scenario.NewClassifier(ctx, emb, scenario.Options{
		Threshold: threshold,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	opts.Logger.Debug("pipeline ready",
		"rules", index.Len(),
		"model", emb.Model(),
		"duration_ms", time.Since(start).Milliseconds())

	return &Pipeline{
		Knowledge:  base,
		Embedder:   emb,
		Index:      index,
		Classifier: classifier,
		Retriever:  retrieval.NewRetriever(index, classifier, opts.Logger),
		Prompts:    prompt.NewBuilder(base),
	}, nil
}
