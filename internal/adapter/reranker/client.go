package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/karthik738/AssessmentRecommendation/internal/rerank"
)

const (
	ProviderJina   = "jina"
	ProviderCohere = "cohere"

	jinaURL   = "https://api.jina.ai/v1/rerank"
	cohereURL = "https://api.cohere.ai/v1/rerank"

	jinaModel   = "jina-reranker-v1-base-en"
	cohereModel = "rerank-english-v3.0"
)

var ErrUnknownProvider = errors.New("unknown cross-encoder provider")

// Client reorders candidates with a hosted cross-encoder rerank API. It
// satisfies the same contract as the LLM reranker: failures fall back to the
// retrieval order.
type Client struct {
	apiKey     string
	provider   string
	model      string
	baseURL    string
	maxResults int
	client     *http.Client
}

func NewClient(provider, apiKey string, timeout time.Duration) (*Client, error) {
	c := &Client{
		provider:   provider,
		apiKey:     apiKey,
		maxResults: rerank.DefaultMaxResults,
		client:     &http.Client{Timeout: timeout},
	}
	switch provider {
	case ProviderJina:
		c.baseURL, c.model = jinaURL, jinaModel
	case ProviderCohere:
		c.baseURL, c.model = cohereURL, cohereModel
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return c, nil
}

func (c *Client) SetBaseURL(url string) {
	if url != "" {
		c.baseURL = url
	}
}

func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

func (c *Client) Rerank(ctx context.Context, query string, candidates []rerank.Candidate) rerank.Outcome {
	if len(candidates) == 0 {
		return rerank.Outcome{Order: []int{}}
	}

	docs := make([]string, len(candidates))
	for i, cand := range candidates {
		docs[i] = Document(cand)
	}

	start := time.Now()
	order, err := c.rank(ctx, query, docs)
	if err == nil && len(order) == 0 {
		err = rerank.ErrNoMatches
	}
	if err != nil {
		slog.WarnContext(ctx, "rerank failed, keeping retrieval order",
			"provider", c.provider, "error", err, "candidates", len(candidates), "duration", time.Since(start))
		return rerank.Fallback(len(candidates), err)
	}

	if len(order) > c.maxResults {
		order = order[:c.maxResults]
	}
	slog.DebugContext(ctx, "rerank complete", "provider", c.provider, "kept", len(order), "duration", time.Since(start))
	return rerank.Outcome{Order: order, Reranked: true}
}

func (c *Client) rank(ctx context.Context, query string, docs []string) ([]int, error) {
	reqBody := map[string]interface{}{
		"model":     c.model,
		"query":     query,
		"documents": docs,
	}
	if c.provider == ProviderCohere {
		reqBody["top_n"] = len(docs)
		reqBody["return_documents"] = false
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s api error: %d", c.provider, resp.StatusCode)
	}

	var result struct {
		Results []struct {
			Index int     `json:"index"`
			Score float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(result.Results))
	indices := make([]int, 0, len(result.Results))
	for _, r := range result.Results {
		if r.Index < 0 || r.Index >= len(docs) || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		indices = append(indices, r.Index)
	}
	return indices, nil
}

// Document renders a candidate as the passage scored against the query.
func Document(c rerank.Candidate) string {
	parts := []string{c.Name}
	if len(c.TestTypes) > 0 {
		parts = append(parts, "Test Types: "+strings.Join(c.TestTypes, ", "))
	}
	if c.Duration != "" {
		parts = append(parts, "Duration: "+c.Duration)
	}
	parts = append(parts, "Remote Testing: "+c.RemoteTesting, "Adaptive/IRT: "+c.AdaptiveIRT)
	return strings.Join(parts, " | ")
}
