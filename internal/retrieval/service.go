package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/karthik738/AssessmentRecommendation/internal/catalog"
	"github.com/karthik738/AssessmentRecommendation/internal/extract"
	"github.com/karthik738/AssessmentRecommendation/internal/index"
	"github.com/karthik738/AssessmentRecommendation/internal/middleware"
	"github.com/karthik738/AssessmentRecommendation/internal/normalize"
	"github.com/karthik738/AssessmentRecommendation/internal/rerank"
)

// MaxResults bounds every response regardless of TopK.
const MaxResults = 10

var (
	ErrEmptyQuery    = errors.New("query is empty")
	ErrEmbedding     = errors.New("query embedding failed")
	ErrInvalidVector = errors.New("invalid query vector")
	ErrNoCatalog     = errors.New("catalog not loaded")
)

type Recommendation struct {
	ID               int                `json:"id"`
	Name             string             `json:"name"`
	URL              string             `json:"url"`
	Description      string             `json:"description"`
	Duration         string             `json:"duration"`
	DurationMinutes  int                `json:"duration_minutes"`
	RemoteTesting    string             `json:"remote_testing"`
	AdaptiveIRT      string             `json:"adaptive_irt"`
	SupportsRemote   bool               `json:"supports_remote"`
	SupportsAdaptive bool               `json:"supports_adaptive"`
	TestTypes        []string           `json:"test_types"`
	JobLevels        []string           `json:"job_levels"`
	Languages        []string           `json:"languages"`
	Downloads        []extract.Download `json:"downloads"`
	Distance         float32            `json:"distance"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []rerank.Candidate) rerank.Outcome
}

// Catalog yields the store currently being served.
type Catalog interface {
	Store() *catalog.Store
}

type Options struct {
	TopK           int
	SpellThreshold float64
	EmbedTimeout   time.Duration
}

type Service struct {
	embedder Embedder
	catalog  Catalog
	reranker Reranker
	logger   *QueryLogger
	opts     Options

	view atomic.Pointer[catalogView]
}

// catalogView caches the normalizer built from a store's names.
type catalogView struct {
	store      *catalog.Store
	normalizer *normalize.Normalizer
}

func NewService(e Embedder, c Catalog, r Reranker, l *QueryLogger, opts Options) *Service {
	if opts.TopK <= 0 {
		opts.TopK = MaxResults
	}
	return &Service{embedder: e, catalog: c, reranker: r, logger: l, opts: opts}
}

// Recommend runs the text pipeline: normalize, embed, search, extract, rerank.
func (s *Service) Recommend(ctx context.Context, query string) ([]Recommendation, error) {
	start := time.Now()
	entry := QueryLogEntry{Query: query, Mode: ModeText}
	var results []Recommendation
	var err error

	defer func() {
		if s.logger != nil && err == nil {
			entry.NumResults = len(results)
			entry.Duration = time.Since(start)
			entry.CorrelationID = middleware.GetCorrelationID(ctx)
			s.logger.Log(entry)
		}
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		err = ErrEmptyQuery
		return nil, err
	}

	view, err := s.currentView()
	if err != nil {
		return nil, err
	}

	effective, corrected := view.normalizer.Normalize(query)
	entry.EffectiveQuery = effective
	if corrected {
		slog.InfoContext(ctx, "query normalized to catalog name", "query", query, "match", effective)
	}

	// 1. Embed Query
	vec, err := s.embed(ctx, effective)
	if err != nil {
		return nil, err
	}
	if len(vec) != view.store.Dim() {
		err = fmt.Errorf("%w: %w: expected %d, got %d", ErrEmbedding, index.ErrDimensionMismatch, view.store.Dim(), len(vec))
		return nil, err
	}

	// 2. Vector Search
	recs, err := s.search(view.store, vec)
	if err != nil {
		return nil, err
	}

	// 3. Rerank
	results, entry.Reranked = s.rerank(ctx, effective, recs)
	return results, nil
}

// RecommendVector searches with a caller-supplied embedding. There is no
// query text to judge relevance against, so distance order is kept.
func (s *Service) RecommendVector(ctx context.Context, vec []float32) ([]Recommendation, error) {
	start := time.Now()
	entry := QueryLogEntry{Mode: ModeVector}
	var results []Recommendation
	var err error

	defer func() {
		if s.logger != nil && err == nil {
			entry.NumResults = len(results)
			entry.Duration = time.Since(start)
			entry.CorrelationID = middleware.GetCorrelationID(ctx)
			s.logger.Log(entry)
		}
	}()

	view, err := s.currentView()
	if err != nil {
		return nil, err
	}
	if len(vec) != view.store.Dim() {
		err = fmt.Errorf("%w: expected %d dimensions, got %d", ErrInvalidVector, view.store.Dim(), len(vec))
		return nil, err
	}

	results, err = s.search(view.store, vec)
	if err != nil {
		return nil, err
	}
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results, nil
}

// Dimension reports the embedding dimension of the served catalog.
func (s *Service) Dimension() int {
	if st := s.catalog.Store(); st != nil {
		return st.Dim()
	}
	return 0
}

func (s *Service) currentView() (*catalogView, error) {
	st := s.catalog.Store()
	if st == nil {
		return nil, ErrNoCatalog
	}
	if v := s.view.Load(); v != nil && v.store == st {
		return v, nil
	}
	v := &catalogView{store: st, normalizer: normalize.New(st.Names(), s.opts.SpellThreshold)}
	s.view.Store(v)
	return v, nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	if s.opts.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.EmbedTimeout)
		defer cancel()
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
	}
	return vec, nil
}

func (s *Service) search(store *catalog.Store, vec []float32) ([]Recommendation, error) {
	matches, err := store.Search(vec, s.opts.TopK)
	if err != nil {
		return nil, err
	}
	out := make([]Recommendation, len(matches))
	for i, m := range matches {
		out[i] = toRecommendation(m)
	}
	return out, nil
}

func (s *Service) rerank(ctx context.Context, query string, recs []Recommendation) ([]Recommendation, bool) {
	limit := func(rs []Recommendation) []Recommendation {
		if len(rs) > MaxResults {
			return rs[:MaxResults]
		}
		return rs
	}
	if s.reranker == nil || len(recs) == 0 {
		return limit(recs), false
	}

	candidates := make([]rerank.Candidate, len(recs))
	for i, r := range recs {
		candidates[i] = rerank.Candidate{
			ID:            r.ID,
			Name:          r.Name,
			URL:           r.URL,
			RemoteTesting: r.RemoteTesting,
			AdaptiveIRT:   r.AdaptiveIRT,
			Duration:      r.Duration,
			TestTypes:     r.TestTypes,
			Downloads:     r.Downloads,
		}
	}

	outcome := s.reranker.Rerank(ctx, query, candidates)
	ordered := make([]Recommendation, 0, len(outcome.Order))
	for _, i := range outcome.Order {
		if i >= 0 && i < len(recs) {
			ordered = append(ordered, recs[i])
		}
	}
	return limit(ordered), outcome.Reranked
}

func toRecommendation(m catalog.Match) Recommendation {
	f := extract.Extract(m.Record.Text)
	return Recommendation{
		ID:               m.Record.ID,
		Name:             m.Record.Name,
		URL:              m.Record.SourceURL,
		Description:      f.Description,
		Duration:         f.Duration,
		DurationMinutes:  f.DurationMinutes,
		RemoteTesting:    yesNo(f.SupportsRemote),
		AdaptiveIRT:      yesNo(f.SupportsAdaptive),
		SupportsRemote:   f.SupportsRemote,
		SupportsAdaptive: f.SupportsAdaptive,
		TestTypes:        f.Categories,
		JobLevels:        f.JobLevels,
		Languages:        f.Languages,
		Downloads:        f.Downloads,
		Distance:         m.Distance,
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
