package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/karthik738/AssessmentRecommendation/internal/config"
	"github.com/karthik738/AssessmentRecommendation/internal/logger"
)

// ServeFunc runs the HTTP service until ctx is cancelled.
type ServeFunc func(ctx context.Context, cfg *config.Config, logger *slog.Logger) error

func NewRootCommand(serve ServeFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "recommender",
		Short: "SHL assessment recommender - semantic retrieval over the SHL catalog",
		Long: `recommender builds a vector index over the scraped SHL product catalog and
serves ranked assessment recommendations for free-text queries.

Example usage:
  recommender build --catalog data/catalog.json   # Embed the catalog and write artifacts
  recommender serve                               # Serve /recommend on SERVER_PORT`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCommand(serve))
	root.AddCommand(newBuildCommand())
	return root
}

// setupLogger installs the JSON context logger at the configured level.
func setupLogger(cfg *config.Config) *slog.Logger {
	l := logger.New(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(l)
	return l
}
