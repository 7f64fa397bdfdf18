package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/karthik738/AssessmentRecommendation/internal/app"
	"github.com/karthik738/AssessmentRecommendation/internal/cli"
	"github.com/karthik738/AssessmentRecommendation/internal/config"
)

func main() {
	if err := cli.NewRootCommand(run).Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	a, err := app.New(cfg, deps.Catalog, deps.Embedder, deps.Reranker, deps.DB, logger)
	if err != nil {
		return err
	}

	consumer, err := app.StartConsumer(cfg, a.ReloadConsumer)
	if err != nil {
		// Serving continues on the artifacts loaded at startup.
		logger.Error("failed to start reload consumer", "error", err)
	}
	if consumer != nil {
		defer consumer.Stop()
	}

	return a.Run(ctx)
}
