package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/karthik738/AssessmentRecommendation/features/feedback"
	"github.com/karthik738/AssessmentRecommendation/features/mcp"
	"github.com/karthik738/AssessmentRecommendation/features/recommend"
	"github.com/karthik738/AssessmentRecommendation/features/stats"
	"github.com/karthik738/AssessmentRecommendation/internal/catalog"
	"github.com/karthik738/AssessmentRecommendation/internal/config"
	"github.com/karthik738/AssessmentRecommendation/internal/middleware"
	"github.com/karthik738/AssessmentRecommendation/internal/retrieval"
	"github.com/karthik738/AssessmentRecommendation/internal/worker"
)

type App struct {
	Handler        http.Handler
	Service        *retrieval.Service
	ReloadConsumer *worker.ReloadConsumer

	port int
}

// New wires the HTTP surface. db may be nil, in which case the feedback
// routes are not mounted. reranker may be nil to serve distance order.
func New(
	cfg *config.Config,
	holder *catalog.Holder,
	embedder Embedder,
	reranker retrieval.Reranker,
	db *sql.DB,
	logger *slog.Logger,
) (*App, error) {
	if holder == nil || holder.Store() == nil {
		return nil, retrieval.ErrNoCatalog
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Feature: Retrieval
	queryLogger := retrieval.NewQueryLogger(os.Stdout)
	if cfg.QueryLogPath != "" {
		fileLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
		if err != nil {
			logger.Warn("failed to create query logger, falling back to stdout", "error", err)
		} else {
			queryLogger = fileLogger
		}
	}

	retrievalService := retrieval.NewService(embedder, holder, reranker, queryLogger, retrieval.Options{
		TopK:           cfg.TopK,
		SpellThreshold: cfg.SpellThreshold,
		EmbedTimeout:   cfg.EmbedTimeout,
	})
	recommendHandler := recommend.NewHandler(retrievalService, holder)

	// Routes
	mux := http.NewServeMux()

	mux.Handle("GET /", middleware.CorrelationID(middleware.CORS(recommendHandler.Root)))
	mux.Handle("GET /health", middleware.CorrelationID(middleware.CORS(recommendHandler.Health)))
	mux.Handle("GET /recommend", middleware.CorrelationID(middleware.CORS(recommendHandler.Get)))
	mux.Handle("POST /recommend", middleware.CorrelationID(middleware.CORS(recommendHandler.Post)))

	// Feature: Feedback
	var feedbackCounter stats.FeedbackCounter
	if db != nil {
		feedbackService := feedback.NewService(feedback.NewPostgresRepo(db), logger)
		feedbackHandler := feedback.NewHandler(feedbackService)
		feedbackCounter = feedbackService

		mux.Handle("POST /feedback", middleware.CorrelationID(middleware.CORS(feedbackHandler.Create)))
		mux.Handle("GET /feedback", middleware.CorrelationID(middleware.CORS(feedbackHandler.List)))
		logger.Info("feedback routes enabled")
	}

	// Feature: Stats
	statsHandler := stats.NewHandler(holder, feedbackCounter)
	mux.Handle("GET /stats", middleware.CorrelationID(middleware.CORS(statsHandler.GetStats)))

	// Feature: MCP
	mcpHandler := mcp.NewHandler(retrievalService, holder)
	mux.Handle("POST /mcp", middleware.CorrelationID(mcpHandler))
	mux.Handle("GET /mcp/sse", middleware.CorrelationID(middleware.CORS(mcpHandler.HandleSSE)))
	mux.Handle("POST /mcp/messages", middleware.CorrelationID(middleware.CORS(mcpHandler.HandleMessage)))

	// CORS preflight for every route
	mux.Handle("OPTIONS /", middleware.CorrelationID(middleware.CORS(func(w http.ResponseWriter, r *http.Request) {})))

	// Worker (Reload Consumer) Setup
	reloadConsumer := worker.NewReloadConsumer(func(indexPath, docstorePath string) (*catalog.Store, error) {
		return catalog.Open(indexPath, docstorePath, cfg.EmbeddingDimension)
	}, holder)

	return &App{
		Handler:        mux,
		Service:        retrievalService,
		ReloadConsumer: reloadConsumer,
		port:           cfg.ServerPort,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
