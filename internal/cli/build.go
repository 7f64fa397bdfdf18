package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/karthik738/AssessmentRecommendation/internal/app"
	"github.com/karthik738/AssessmentRecommendation/internal/catalog"
	"github.com/karthik738/AssessmentRecommendation/internal/config"
	"github.com/karthik738/AssessmentRecommendation/internal/worker"
)

type buildOptions struct {
	catalogPath  string
	indexPath    string
	docstorePath string
	publish      bool
}

func newBuildCommand() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Embed the product catalog and write the index and docstore",
		Long: `Build flattens every product in the scraped catalog into one text record,
embeds it with the configured provider and writes the vector index and the
docstore side by side. Any embedding failure aborts the build and leaves
existing artifacts untouched.

Examples:
  recommender build
  recommender build --catalog data/shl_product_details_full.json --publish`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "scraped catalog JSON (overrides CATALOG_PATH)")
	cmd.Flags().StringVar(&opts.indexPath, "index", "", "index output path (overrides INDEX_PATH)")
	cmd.Flags().StringVar(&opts.docstorePath, "docstore", "", "docstore output path (overrides DOCSTORE_PATH)")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "announce the new artifacts on NSQ so running servers reload")
	return cmd
}

func runBuild(cmd *cobra.Command, opts buildOptions) error {
	ctx := cmd.Context()

	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.catalogPath != "" {
		cfg.CatalogPath = opts.catalogPath
	}
	if opts.indexPath != "" {
		cfg.IndexPath = opts.indexPath
	}
	if opts.docstorePath != "" {
		cfg.DocstorePath = opts.docstorePath
	}
	if err := cfg.ValidateBuild(); err != nil {
		return err
	}
	if opts.publish && cfg.NSQDHost == "" {
		return fmt.Errorf("%w: NSQD_HOST is required with --publish", config.ErrMissingRequired)
	}
	log := setupLogger(cfg)

	products, err := catalog.LoadProducts(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	embedder, closeEmbedder, err := app.NewEmbedder(ctx, cfg, app.PurposeDocument)
	if err != nil {
		return err
	}
	defer closeEmbedder()

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Embedding %d products with %s/%s...\n", len(products), cfg.EmbeddingProvider, cfg.EmbeddingModel)

	start := time.Now()
	bar := newProgressBar(len(products), out)
	builder := catalog.NewBuilder(embedder, cfg.EmbeddingDimension, cfg.EmbedTimeout).
		WithProgress(func(done, total int) {
			_ = bar.Set(done)
		})

	store, err := builder.Build(ctx, products)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if err := catalog.WriteArtifacts(store, cfg.IndexPath, cfg.DocstorePath); err != nil {
		return fmt.Errorf("failed to write artifacts: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d records (dimension %d) in %s\n  index:    %s\n  docstore: %s\n",
		store.Len(), store.Dim(), time.Since(start).Round(time.Millisecond), cfg.IndexPath, cfg.DocstorePath)

	if opts.publish {
		producer, err := app.NewProducer(cfg)
		if err != nil {
			return err
		}
		defer producer.Stop()

		event := worker.IndexBuiltEvent{
			IndexPath:    cfg.IndexPath,
			DocstorePath: cfg.DocstorePath,
			Records:      store.Len(),
			Dimension:    store.Dim(),
		}
		if err := worker.PublishIndexBuilt(ctx, producer, event); err != nil {
			return fmt.Errorf("failed to publish index event: %w", err)
		}
		log.Info("index event published", "topic", config.TopicIndexBuilt, "records", store.Len())
	}
	return nil
}

func newProgressBar(total int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
