package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

var (
	ErrEmptyEmbedding = errors.New("provider returned an empty embedding")
	ErrEmptyResponse  = errors.New("provider returned no completion")
)

// Options configures an OpenAI-compatible client. Headers are sent with every
// request, which OpenRouter uses for attribution.
type Options struct {
	APIKey     string
	BaseURL    string
	Headers    map[string]string
	HTTPClient *http.Client
}

// headerDoer adds fixed headers to every outgoing request.
type headerDoer struct {
	next    openai.HTTPDoer
	headers map[string]string
}

func (d *headerDoer) Do(req *http.Request) (*http.Response, error) {
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}
	return d.next.Do(req)
}

func NewClient(opts Options) *openai.Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	var doer openai.HTTPDoer = http.DefaultClient
	if opts.HTTPClient != nil {
		doer = opts.HTTPClient
	}
	if len(opts.Headers) > 0 {
		doer = &headerDoer{next: doer, headers: opts.Headers}
	}
	cfg.HTTPClient = doer
	return openai.NewClientWithConfig(cfg)
}

// NewOpenRouterClient returns a client for OpenRouter with its attribution
// headers set.
func NewOpenRouterClient(apiKey, referer, title string) *openai.Client {
	headers := map[string]string{}
	if referer != "" {
		headers["HTTP-Referer"] = referer
	}
	if title != "" {
		headers["X-Title"] = title
	}
	return NewClient(Options{APIKey: apiKey, BaseURL: OpenRouterBaseURL, Headers: headers})
}

type Embedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewEmbedder returns an embedder for model. A positive dimensions value is
// sent to models that support shortened embeddings.
func NewEmbedder(client *openai.Client, model string, dimensions int) *Embedder {
	return &Embedder{client: client, model: model, dimensions: dimensions}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	slog.DebugContext(ctx, "embedding content", "model", e.model, "length", len(text))
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err)
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return resp.Data[0].Embedding, nil
}

// Completer produces chat completions for reranking.
type Completer struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewCompleter(client *openai.Client, model string, temperature float32) *Completer {
	return &Completer{client: client, model: model, temperature: temperature}
}

func (c *Completer) Generate(ctx context.Context, system, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	slog.DebugContext(ctx, "requesting completion", "model", c.model, "length", len(prompt))
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		slog.ErrorContext(ctx, "completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
