package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/karthik738/AssessmentRecommendation/internal/extract"
)

const (
	DefaultMaxResults = 10

	SystemPrompt = "You are a helpful assistant trained on SHL assessments."
)

var (
	ErrUnparseable = errors.New("rerank response contains no json array")
	ErrNoMatches   = errors.New("rerank response references no known candidate")
)

// Generator produces a completion for a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Candidate is the view of a retrieved record shown to the model.
type Candidate struct {
	ID            int                `json:"id"`
	Name          string             `json:"name"`
	URL           string             `json:"url"`
	RemoteTesting string             `json:"remote_testing"`
	AdaptiveIRT   string             `json:"adaptive_irt"`
	Duration      string             `json:"duration"`
	TestTypes     []string           `json:"test_types"`
	Downloads     []extract.Download `json:"downloads"`
}

// Outcome is the result of a rerank attempt. Order holds indices into the
// candidate slice. When Reranked is false, Order is the original order and
// Err, if set, says why the model's answer was not used.
type Outcome struct {
	Order    []int
	Reranked bool
	Err      error
}

type Reranker struct {
	gen        Generator
	timeout    time.Duration
	maxResults int
}

// New returns a reranker backed by gen. A nil gen disables reranking.
func New(gen Generator, timeout time.Duration) *Reranker {
	return &Reranker{gen: gen, timeout: timeout, maxResults: DefaultMaxResults}
}

// Rerank asks the model to reorder candidates by relevance to query. It never
// fails: any provider or parsing problem yields the original order.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []Candidate) Outcome {
	if r == nil || r.gen == nil || len(candidates) == 0 {
		return Fallback(len(candidates), nil)
	}

	start := time.Now()
	order, err := r.rerank(ctx, query, candidates)
	if err != nil {
		slog.WarnContext(ctx, "rerank failed, keeping retrieval order",
			"error", err, "candidates", len(candidates), "duration", time.Since(start))
		return Fallback(len(candidates), err)
	}

	slog.DebugContext(ctx, "rerank complete", "candidates", len(candidates), "kept", len(order), "duration", time.Since(start))
	return Outcome{Order: order, Reranked: true}
}

func (r *Reranker) rerank(ctx context.Context, query string, candidates []Candidate) ([]int, error) {
	prompt, err := BuildPrompt(query, candidates)
	if err != nil {
		return nil, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	raw, err := r.gen.Generate(ctx, SystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	elems, err := ParseArray(raw)
	if err != nil {
		return nil, err
	}
	return matchCandidates(elems, candidates, r.maxResults)
}

// BuildPrompt renders the user prompt listing every candidate as JSON.
func BuildPrompt(query string, candidates []Candidate) (string, error) {
	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode candidates: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an assistant that reranks SHL assessments.\n\n")
	b.WriteString("Query: ")
	b.WriteString(query)
	b.WriteString("\n\nAssessments:\n")
	b.Write(data)
	b.WriteString("\n\nReorder and return only the top 5 to 10 most relevant assessments as a valid JSON array.\n")
	b.WriteString("Return each assessment as a JSON object and keep its \"id\" field unchanged.\n")
	b.WriteString("If fewer than 10 are highly relevant, return fewer.\n")
	b.WriteString("Only include the sorted list as output.")
	return b.String(), nil
}

// ParseArray extracts a JSON array from a model response. The whole response
// is tried first, then the span from the first '[' to the last ']'.
func ParseArray(raw string) ([]json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &elems); err == nil && elems != nil {
		return elems, nil
	}

	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, ErrUnparseable
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &elems); err != nil || elems == nil {
		return nil, ErrUnparseable
	}
	return elems, nil
}

type element struct {
	ID   *int   `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// matchCandidates maps returned elements back to candidate indices by id,
// then url, then name. Only objects are matched: a bare number could be a
// rank or a position as easily as an id. Unknown and repeated elements are
// dropped.
func matchCandidates(elems []json.RawMessage, candidates []Candidate, limit int) ([]int, error) {
	byID := make(map[int]int, len(candidates))
	byURL := make(map[string]int, len(candidates))
	byName := make(map[string]int, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		c := candidates[i]
		byID[c.ID] = i
		if c.URL != "" {
			byURL[c.URL] = i
		}
		byName[strings.ToLower(c.Name)] = i
	}

	lookup := func(raw json.RawMessage) (int, bool) {
		if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			return 0, false
		}
		var e element
		if err := json.Unmarshal(raw, &e); err != nil {
			return 0, false
		}
		if e.ID != nil {
			if i, ok := byID[*e.ID]; ok {
				return i, true
			}
		}
		if i, ok := byURL[e.URL]; ok && e.URL != "" {
			return i, true
		}
		i, ok := byName[strings.ToLower(strings.TrimSpace(e.Name))]
		return i, ok && e.Name != ""
	}

	order := []int{}
	seen := make(map[int]bool, len(candidates))
	for _, raw := range elems {
		i, ok := lookup(raw)
		if !ok || seen[i] {
			continue
		}
		seen[i] = true
		order = append(order, i)
		if len(order) == limit {
			break
		}
	}

	if len(elems) > 0 && len(order) == 0 {
		return nil, ErrNoMatches
	}
	return order, nil
}

// Fallback is the outcome that keeps the retrieval order of n candidates.
// err records why reranking was skipped and may be nil.
func Fallback(n int, err error) Outcome {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return Outcome{Order: order, Err: err}
}
