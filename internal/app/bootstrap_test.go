package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthik738/AssessmentRecommendation/internal/app"
	"github.com/karthik738/AssessmentRecommendation/internal/config"
	"github.com/karthik738/AssessmentRecommendation/internal/index"
	"github.com/karthik738/AssessmentRecommendation/internal/testutils"
)

func bootstrapConfig(t *testing.T) *config.Config {
	indexPath, docstorePath := testutils.WriteCatalog(t, 4, names...)
	return &config.Config{
		IndexPath:          indexPath,
		DocstorePath:       docstorePath,
		EmbeddingProvider:  config.ProviderOpenAI,
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingBaseURL:   testutils.EmbeddingServer(t).URL,
		EmbeddingDimension: 4,
		EmbedTimeout:       time.Second,
		OpenAIAPIKey:       "test-key",
		RerankProvider:     config.ProviderNone,
	}
}

type fixedEmbedder struct {
	vec []float32
	err error
}

func (e fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	return e.vec, e.err
}

func TestBootstrap_NoOptionalDependencies(t *testing.T) {
	deps, err := app.Bootstrap(context.Background(), bootstrapConfig(t))
	require.NoError(t, err)
	defer deps.Close()

	assert.Equal(t, 3, deps.Catalog.Store().Len())
	assert.NotNil(t, deps.Embedder)
	assert.NotNil(t, deps.Reranker)
	assert.Nil(t, deps.DB)
	assert.Nil(t, deps.NSQProducer)
}

func TestBootstrap_MissingArtifacts(t *testing.T) {
	cfg := bootstrapConfig(t)
	cfg.IndexPath = "/nonexistent/index.db"

	deps, err := app.Bootstrap(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, deps)
}

func TestBootstrap_DimensionMismatch(t *testing.T) {
	cfg := bootstrapConfig(t)
	cfg.EmbeddingDimension = 768

	_, err := app.Bootstrap(context.Background(), cfg)
	assert.ErrorIs(t, err, index.ErrDimensionMismatch)
}

func TestBootstrap_QueryEmbedderDimensionMismatch(t *testing.T) {
	cfg := bootstrapConfig(t)
	// ada-002 takes no dimensions parameter, so the server answers with its
	// full size while the index holds 4-dimensional vectors.
	cfg.EmbeddingModel = "text-embedding-ada-002"

	deps, err := app.Bootstrap(context.Background(), cfg)
	assert.ErrorIs(t, err, index.ErrDimensionMismatch)
	assert.Nil(t, deps)
}

func TestCheckEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("Matching Length", func(t *testing.T) {
		err := app.CheckEmbedder(ctx, fixedEmbedder{vec: make([]float32, 4)}, 4, time.Second)
		assert.NoError(t, err)
	})

	t.Run("Wrong Length", func(t *testing.T) {
		err := app.CheckEmbedder(ctx, fixedEmbedder{vec: make([]float32, 1536)}, 768, time.Second)
		assert.ErrorIs(t, err, index.ErrDimensionMismatch)
		assert.Contains(t, err.Error(), "returns 1536 values, index has 768")
	})

	t.Run("Provider Error Is Not Fatal", func(t *testing.T) {
		err := app.CheckEmbedder(ctx, fixedEmbedder{err: errors.New("503")}, 4, 0)
		assert.NoError(t, err)
	})
}

func TestBootstrap_Resilience_DBDown(t *testing.T) {
	cfg := bootstrapConfig(t)
	cfg.FeedbackEnabled = true
	cfg.DBHost = "localhost"
	cfg.DBPort = 54322 // Random port likely closed
	cfg.DBUser = "test"
	cfg.DBPass = "test"
	cfg.DBName = "test"
	cfg.BootstrapRetryAttempts = 1
	cfg.BootstrapRetryDelaySeconds = 0

	start := time.Now()
	deps, err := app.Bootstrap(context.Background(), cfg)
	duration := time.Since(start)

	assert.Error(t, err)
	assert.Nil(t, deps)
	assert.Contains(t, err.Error(), "failed to ping db")
	assert.Less(t, duration, 2*time.Second)
}

func TestStartConsumer_Disabled(t *testing.T) {
	consumer, err := app.StartConsumer(&config.Config{}, nil)
	assert.NoError(t, err)
	assert.Nil(t, consumer)
}
