package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var (
	ErrMissingAPIKey  = errors.New("gemini api key not configured")
	ErrEmptyEmbedding = errors.New("gemini returned an empty embedding")
)

// NewClient creates a Gemini client. Extra options are appended after the
// API key, which lets tests point the client at a local endpoint.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*genai.Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	allOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	return genai.NewClient(ctx, allOpts...)
}

type Embedder struct {
	client   *genai.Client
	model    string
	taskType genai.TaskType
}

// NewEmbedder returns an embedder for query text. Use WithTaskType to embed
// catalog documents instead.
func NewEmbedder(client *genai.Client, model string) *Embedder {
	return &Embedder{client: client, model: model, taskType: genai.TaskTypeRetrievalQuery}
}

// WithTaskType returns a copy of the embedder that shares the same client.
func (e *Embedder) WithTaskType(tt genai.TaskType) *Embedder {
	cp := *e
	cp.taskType = tt
	return &cp
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", e.model, "task_type", e.taskType.String(), "length", len(text))
	em := e.client.EmbeddingModel(e.model)
	em.TaskType = e.taskType
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return res.Embedding.Values, nil
}
