// Command replan-mcp serves the replan tools to MCP clients over stdio.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/replan-rag/internal/config"
	"github.com/raphaelgruber/replan-rag/internal/server"
	"github.com/raphaelgruber/replan-rag/internal/service"
	"github.com/raphaelgruber/replan-rag/internal/tools"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load(os.Getenv("REPLAN_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	err = run(cfg, logger)
	if err != nil {
		logger.Error("replan-mcp stopped", "error", err)
	}
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("replan-mcp starting",
		"version", version,
		"embedding_provider", string(cfg.EmbedProvider),
		"knowledge_base", cfg.KnowledgeBaseDir,
	)

	pipeline, err := service.NewPipeline(ctx, cfg, service.PipelineOptions{Logger: logger})
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	logger.Info("pipeline ready", "rules", pipeline.Index.Len(), "model", pipeline.Embedder.Model())

	srv := server.New(version, logger)
	tools.RegisterAll(srv.MCP(), &tools.Dependencies{
		Pipeline: pipeline,
		Replan: service.NewReplanService(pipeline.Retriever, pipeline.Prompts, nil, service.Options{
			TopK:   cfg.TopK,
			Logger: logger,
		}),
		Logger: logger,
		TopK:   cfg.TopK,
	})

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
