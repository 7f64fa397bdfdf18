package config_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/karthik738/AssessmentRecommendation/internal/config"

	"github.com/stretchr/testify/assert"
)

func validConfig() config.Config {
	return config.Config{
		IndexPath:          "data/index.db",
		DocstorePath:       "data/docstore.json",
		TopK:               10,
		SpellThreshold:     0.7,
		EmbeddingProvider:  config.ProviderGemini,
		EmbeddingDimension: 768,
		GeminiAPIKey:       "g-key",
		RerankProvider:     config.ProviderOpenRouter,
		OpenRouterAPIKey:   "or-key",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
		errIs   error
	}{
		{
			name:   "Valid Config",
			mutate: func(c *config.Config) {},
		},
		{
			name:    "Missing Gemini Key",
			mutate:  func(c *config.Config) { c.GeminiAPIKey = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name: "OpenAI Embeddings Without Key",
			mutate: func(c *config.Config) {
				c.EmbeddingProvider = config.ProviderOpenAI
			},
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name:    "Missing OpenRouter Key",
			mutate:  func(c *config.Config) { c.OpenRouterAPIKey = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name: "Rerank Disabled Needs No Key",
			mutate: func(c *config.Config) {
				c.RerankProvider = config.ProviderNone
				c.OpenRouterAPIKey = ""
			},
		},
		{
			name: "Gemini Rerank Reuses Gemini Key",
			mutate: func(c *config.Config) {
				c.RerankProvider = config.ProviderGemini
				c.OpenRouterAPIKey = ""
			},
		},
		{
			name:    "Unknown Embedding Provider",
			mutate:  func(c *config.Config) { c.EmbeddingProvider = "faiss" },
			wantErr: true,
			errIs:   config.ErrInvalid,
		},
		{
			name:    "Unknown Rerank Provider",
			mutate:  func(c *config.Config) { c.RerankProvider = "bm25" },
			wantErr: true,
			errIs:   config.ErrInvalid,
		},
		{
			name:    "Cohere Rerank Missing Key",
			mutate:  func(c *config.Config) { c.RerankProvider = config.ProviderCohere },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name: "Jina Rerank With Key",
			mutate: func(c *config.Config) {
				c.RerankProvider = config.ProviderJina
				c.JinaAPIKey = "jina-key"
			},
		},
		{
			name:    "Zero TopK",
			mutate:  func(c *config.Config) { c.TopK = 0 },
			wantErr: true,
			errIs:   config.ErrInvalid,
		},
		{
			name:    "Threshold Out Of Range",
			mutate:  func(c *config.Config) { c.SpellThreshold = 1.5 },
			wantErr: true,
			errIs:   config.ErrInvalid,
		},
		{
			name:    "Missing Index Path",
			mutate:  func(c *config.Config) { c.IndexPath = "" },
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name: "Feedback Requires DB Host",
			mutate: func(c *config.Config) {
				c.FeedbackEnabled = true
				c.DBUser = "user"
				c.DBName = "db"
			},
			wantErr: true,
			errIs:   config.ErrMissingRequired,
		},
		{
			name: "Feedback Valid",
			mutate: func(c *config.Config) {
				c.FeedbackEnabled = true
				c.DBHost = "localhost"
				c.DBUser = "user"
				c.DBName = "db"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errIs != nil {
					assert.True(t, errors.Is(err, tt.errIs))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	cfg := validConfig()
	for in, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	} {
		cfg.LogLevel = in
		assert.Equal(t, want, cfg.SlogLevel(), in)
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := config.Config{DBHost: "db", DBPort: 5432, DBUser: "u", DBPass: "p", DBName: "n"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", cfg.DSN())
}

func TestConfig_ValidateBuild_IgnoresRerankSettings(t *testing.T) {
	cfg := validConfig()
	cfg.OpenRouterAPIKey = ""
	cfg.TopK = 0

	assert.NoError(t, cfg.ValidateBuild())
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalid)

	cfg.GeminiAPIKey = ""
	assert.ErrorIs(t, cfg.ValidateBuild(), config.ErrMissingRequired)
}
