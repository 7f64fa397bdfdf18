package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/karthik738/AssessmentRecommendation/internal/adapter/gemini"
	"github.com/karthik738/AssessmentRecommendation/internal/adapter/openai"
	"github.com/karthik738/AssessmentRecommendation/internal/adapter/reranker"
	"github.com/karthik738/AssessmentRecommendation/internal/config"
	"github.com/karthik738/AssessmentRecommendation/internal/rerank"
	"github.com/karthik738/AssessmentRecommendation/internal/retrieval"
)

// EmbedPurpose selects how the provider should treat the embedded text.
type EmbedPurpose int

const (
	PurposeQuery EmbedPurpose = iota
	PurposeDocument
)

// Embedder is satisfied by every embedding adapter.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Closer releases provider clients.
type Closer func() error

// NewEmbedder builds the configured embedding adapter. Gemini embeds queries
// and catalog documents with different task types.
func NewEmbedder(ctx context.Context, cfg *config.Config, purpose EmbedPurpose, opts ...option.ClientOption) (Embedder, Closer, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderGemini:
		var clientOpts []option.ClientOption
		if cfg.EmbeddingBaseURL != "" {
			clientOpts = append(clientOpts, option.WithEndpoint(cfg.EmbeddingBaseURL))
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, append(clientOpts, opts...)...)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini client error: %w", err)
		}
		e := gemini.NewEmbedder(client, cfg.EmbeddingModel)
		if purpose == PurposeDocument {
			e = e.WithTaskType(genai.TaskTypeRetrievalDocument)
		}
		return e, client.Close, nil

	case config.ProviderOpenAI:
		client := openai.NewClient(openai.Options{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.EmbeddingBaseURL})
		dims := 0
		if supportsDimensions(cfg.EmbeddingModel) {
			dims = cfg.EmbeddingDimension
		}
		return openai.NewEmbedder(client, cfg.EmbeddingModel, dims), noopClose, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown EMBEDDING_PROVIDER %q", config.ErrInvalid, cfg.EmbeddingProvider)
	}
}

// NewReranker builds the configured reranker: an LLM for openrouter, openai
// and gemini, or a hosted cross-encoder for jina and cohere. Provider "none"
// yields a reranker that keeps the retrieval order.
func NewReranker(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (retrieval.Reranker, Closer, error) {
	switch cfg.RerankProvider {
	case config.ProviderNone:
		return rerank.New(nil, cfg.RerankTimeout), noopClose, nil

	case config.ProviderOpenRouter:
		client := openai.NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.OpenRouterReferer, cfg.OpenRouterTitle)
		if cfg.RerankBaseURL != "" {
			client = openai.NewClient(openai.Options{
				APIKey:  cfg.OpenRouterAPIKey,
				BaseURL: cfg.RerankBaseURL,
				Headers: map[string]string{"HTTP-Referer": cfg.OpenRouterReferer, "X-Title": cfg.OpenRouterTitle},
			})
		}
		gen := openai.NewCompleter(client, cfg.RerankModel, cfg.RerankTemperature)
		return rerank.New(gen, cfg.RerankTimeout), noopClose, nil

	case config.ProviderOpenAI:
		client := openai.NewClient(openai.Options{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.RerankBaseURL})
		gen := openai.NewCompleter(client, cfg.RerankModel, cfg.RerankTemperature)
		return rerank.New(gen, cfg.RerankTimeout), noopClose, nil

	case config.ProviderGemini:
		var clientOpts []option.ClientOption
		if cfg.RerankBaseURL != "" {
			clientOpts = append(clientOpts, option.WithEndpoint(cfg.RerankBaseURL))
		}
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, append(clientOpts, opts...)...)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini client error: %w", err)
		}
		gen := gemini.NewGenerator(client, cfg.RerankModel, cfg.RerankTemperature)
		return rerank.New(gen, cfg.RerankTimeout), client.Close, nil

	case config.ProviderJina, config.ProviderCohere:
		key := cfg.JinaAPIKey
		if cfg.RerankProvider == config.ProviderCohere {
			key = cfg.CohereAPIKey
		}
		client, err := reranker.NewClient(cfg.RerankProvider, key, cfg.RerankTimeout)
		if err != nil {
			return nil, nil, err
		}
		client.SetBaseURL(cfg.RerankBaseURL)
		client.SetModel(cfg.CrossEncoderModel)
		return client, noopClose, nil

	default:
		return nil, nil, fmt.Errorf("%w: unknown RERANK_PROVIDER %q", config.ErrInvalid, cfg.RerankProvider)
	}
}

// supportsDimensions reports whether model accepts a shortened output size.
// Older OpenAI embedding models reject the dimensions parameter.
func supportsDimensions(model string) bool {
	return strings.HasPrefix(model, "text-embedding-3")
}

func noopClose() error { return nil }
