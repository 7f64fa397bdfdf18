package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"

	"github.com/karthik738/AssessmentRecommendation/internal/catalog"
	"github.com/karthik738/AssessmentRecommendation/internal/config"
	"github.com/karthik738/AssessmentRecommendation/internal/index"
	"github.com/karthik738/AssessmentRecommendation/internal/retrieval"
)

type Dependencies struct {
	Catalog  *catalog.Holder
	Embedder Embedder
	Reranker retrieval.Reranker

	// Optional: nil when the feature is not configured.
	DB          *sql.DB
	NSQProducer *nsq.Producer

	closers []Closer
}

// dimensionCheckText is embedded once at startup to learn the length of the
// vectors the query embedder actually returns.
const dimensionCheckText = "assessment"

// Bootstrap loads the catalog artifacts and connects every configured
// dependency. A missing or inconsistent artifact pair is fatal, and so is a
// query embedder whose vectors do not match the index dimension.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	store, err := catalog.Open(cfg.IndexPath, cfg.DocstorePath, cfg.EmbeddingDimension)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog artifacts: %w", err)
	}
	deps.Catalog = catalog.NewHolder(store)
	slog.Info("catalog loaded", "records", store.Len(), "dimension", store.Dim())

	embedder, closeEmbedder, err := NewEmbedder(ctx, cfg, PurposeQuery)
	if err != nil {
		return nil, err
	}
	deps.Embedder = embedder
	deps.closers = append(deps.closers, closeEmbedder)

	if err := CheckEmbedder(ctx, embedder, store.Dim(), cfg.EmbedTimeout); err != nil {
		deps.Close()
		return nil, err
	}

	reranker, closeReranker, err := NewReranker(ctx, cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Reranker = reranker
	deps.closers = append(deps.closers, closeReranker)

	if cfg.FeedbackEnabled {
		db, err := OpenDatabase(cfg)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.DB = db
		deps.closers = append(deps.closers, db.Close)
	}

	if cfg.NSQDHost != "" {
		producer, err := NewProducer(cfg)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.NSQProducer = producer
		deps.closers = append(deps.closers, func() error {
			producer.Stop()
			return nil
		})
	}

	return deps, nil
}

// CheckEmbedder embeds a fixed text and compares the vector length with dim.
// A mismatch wraps index.ErrDimensionMismatch. A provider error only logs a
// warning: the provider may come back, and each request reports its own
// failures.
func CheckEmbedder(ctx context.Context, e Embedder, dim int, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	vec, err := e.Embed(ctx, dimensionCheckText)
	if err != nil {
		slog.Warn("could not verify query embedding dimension", "error", err)
		return nil
	}
	if len(vec) != dim {
		return fmt.Errorf("%w: query embedder returns %d values, index has %d", index.ErrDimensionMismatch, len(vec), dim)
	}
	return nil
}

// Close releases everything Bootstrap opened, in reverse order.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			slog.Warn("failed to close dependency", "error", err)
		}
	}
	d.closers = nil
}

// OpenDatabase connects to the feedback store and applies migrations.
func OpenDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// Retry loop
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1)
		time.Sleep(retryDelay)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	// Migrations
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("migration up error: %w", err)
	}
	slog.Info("migrations applied successfully")

	return db, nil
}

func NewProducer(cfg *config.Config) (*nsq.Producer, error) {
	producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("nsq producer error: %w", err)
	}
	if cfg.NSQDHTTP != "" {
		createTopics(cfg.NSQDHTTP)
	}
	return producer, nil
}

// StartConsumer subscribes h to the index-built topic through nsqlookupd.
// It returns nil when NSQ_LOOKUPD is not configured.
func StartConsumer(cfg *config.Config, h nsq.Handler) (*nsq.Consumer, error) {
	if cfg.NSQLookupd == "" {
		return nil, nil
	}
	consumer, err := nsq.NewConsumer(config.TopicIndexBuilt, cfg.NSQChannel, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("nsq consumer error: %w", err)
	}
	consumer.AddHandler(h)
	if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
		consumer.Stop()
		return nil, fmt.Errorf("failed to connect to NSQLookupd: %w", err)
	}
	slog.Info("NSQ reload consumer connected", "topic", config.TopicIndexBuilt, "channel", cfg.NSQChannel)
	return consumer, nil
}

func createTopics(nsqdHTTP string) {
	create := func(topic string) {
		url := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTP, topic)
		resp, err := http.Post(url, "application/json", nil) // #nosec G107 -- URL is built from internal NSQ config, not user input
		if err != nil {
			slog.Warn("failed to create NSQ topic", "topic", topic, "error", err)
			return
		}
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Warn("failed to close NSQ topic creation response body", "error", closeErr)
		}
	}

	go create(config.TopicIndexBuilt)
}
