package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalid         = errors.New("invalid configuration")
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderJina       = "jina"
	ProviderCohere     = "cohere"
	ProviderNone       = "none"
)

type Config struct {
	// Artifacts
	CatalogPath  string `envconfig:"CATALOG_PATH" default:"data/catalog.json"`
	IndexPath    string `envconfig:"INDEX_PATH" default:"data/index.db"`
	DocstorePath string `envconfig:"DOCSTORE_PATH" default:"data/docstore.json"`

	// Retrieval
	TopK           int     `envconfig:"TOP_K" default:"10"`
	SpellThreshold float64 `envconfig:"SPELL_THRESHOLD" default:"0.7"`

	// Embedding
	EmbeddingProvider  string        `envconfig:"EMBEDDING_PROVIDER" default:"gemini"`
	EmbeddingModel     string        `envconfig:"EMBEDDING_MODEL" default:"embedding-001"`
	EmbeddingDimension int           `envconfig:"EMBEDDING_DIMENSION" default:"768"`
	EmbeddingBaseURL   string        `envconfig:"EMBEDDING_BASE_URL"`
	EmbedTimeout       time.Duration `envconfig:"EMBED_TIMEOUT" default:"15s"`
	GeminiAPIKey       string        `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey       string        `envconfig:"OPENAI_API_KEY"`

	// Rerank
	RerankProvider    string        `envconfig:"RERANK_PROVIDER" default:"openrouter"`
	RerankModel       string        `envconfig:"RERANK_MODEL" default:"anthropic/claude-3-haiku"`
	RerankBaseURL     string        `envconfig:"RERANK_BASE_URL"`
	RerankTemperature float32       `envconfig:"RERANK_TEMPERATURE" default:"0.4"`
	RerankTimeout     time.Duration `envconfig:"RERANK_TIMEOUT" default:"20s"`
	OpenRouterAPIKey  string        `envconfig:"OPENROUTER_API_KEY"`
	OpenRouterReferer string        `envconfig:"OPENROUTER_REFERER" default:"https://shl-recommender.local"`
	OpenRouterTitle   string        `envconfig:"OPENROUTER_TITLE" default:"SHL Assessment Recommender"`
	JinaAPIKey        string        `envconfig:"JINA_API_KEY"`
	CohereAPIKey      string        `envconfig:"COHERE_API_KEY"`
	// CrossEncoderModel overrides the jina/cohere default model.
	CrossEncoderModel string `envconfig:"CROSS_ENCODER_MODEL"`

	// Server
	ServerPort   int    `envconfig:"SERVER_PORT" default:"9000"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`

	// Feedback
	FeedbackEnabled bool   `envconfig:"FEEDBACK_ENABLED" default:"false"`
	DBHost          string `envconfig:"DB_HOST" default:"postgres"`
	DBPort          int    `envconfig:"DB_PORT" default:"5432"`
	DBUser          string `envconfig:"DB_USER" default:"recommender"`
	DBPass          string `envconfig:"DB_PASS" default:"password"`
	DBName          string `envconfig:"DB_NAME" default:"recommender"`
	MigrationPath   string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Messaging. Empty addresses disable the index reload consumer and the
	// build notification.
	NSQLookupd string `envconfig:"NSQ_LOOKUPD"`
	NSQDHost   string `envconfig:"NSQD_HOST"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP"`
	NSQChannel string `envconfig:"NSQ_CHANNEL" default:"recommender"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

// Load parses the environment and validates everything serve needs.
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse reads .env and the environment without validating.
func Parse() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := c.ValidateBuild(); err != nil {
		return err
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: TOP_K must be positive", ErrInvalid)
	}
	if c.SpellThreshold < 0 || c.SpellThreshold > 1 {
		return fmt.Errorf("%w: SPELL_THRESHOLD must be within [0, 1]", ErrInvalid)
	}

	switch c.RerankProvider {
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return fmt.Errorf("%w: OPENROUTER_API_KEY", ErrMissingRequired)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingRequired)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
		}
	case ProviderJina:
		if c.JinaAPIKey == "" {
			return fmt.Errorf("%w: JINA_API_KEY", ErrMissingRequired)
		}
	case ProviderCohere:
		if c.CohereAPIKey == "" {
			return fmt.Errorf("%w: COHERE_API_KEY", ErrMissingRequired)
		}
	case ProviderNone:
	default:
		return fmt.Errorf("%w: unknown RERANK_PROVIDER %q", ErrInvalid, c.RerankProvider)
	}

	if c.FeedbackEnabled {
		if c.DBHost == "" {
			return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
		}
		if c.DBUser == "" {
			return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
		}
		if c.DBName == "" {
			return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
		}
	}
	return nil
}

// ValidateBuild checks what the build command needs: artifact paths and an
// embedding provider.
func (c *Config) ValidateBuild() error {
	if c.IndexPath == "" {
		return fmt.Errorf("%w: INDEX_PATH", ErrMissingRequired)
	}
	if c.DocstorePath == "" {
		return fmt.Errorf("%w: DOCSTORE_PATH", ErrMissingRequired)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("%w: EMBEDDING_DIMENSION must be positive", ErrInvalid)
	}

	switch c.EmbeddingProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("%w: unknown EMBEDDING_PROVIDER %q", ErrInvalid, c.EmbeddingProvider)
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DSN returns the postgres connection string for the feedback store.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}
