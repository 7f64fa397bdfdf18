package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/karthik738/AssessmentRecommendation/internal/catalog"
	"github.com/karthik738/AssessmentRecommendation/internal/middleware"
	"github.com/karthik738/AssessmentRecommendation/internal/retrieval"
)

const WelcomeMessage = "Welcome to the SHL Assessment Recommender API!"

type Recommender interface {
	Recommend(ctx context.Context, query string) ([]retrieval.Recommendation, error)
	RecommendVector(ctx context.Context, vec []float32) ([]retrieval.Recommendation, error)
}

type Catalog interface {
	Store() *catalog.Store
}

type Handler struct {
	service Recommender
	catalog Catalog
}

func NewHandler(s Recommender, c Catalog) *Handler {
	return &Handler{service: s, catalog: c}
}

// Request is the POST /recommend body. Exactly one of Query or Vector is set.
type Request struct {
	Query  *string   `json:"query"`
	Vector []float32 `json:"vector"`
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.writeError(r.Context(), w, "NOT_FOUND", "route not found", http.StatusNotFound)
		return
	}
	h.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	records := 0
	if s := h.catalog.Store(); s != nil {
		records = s.Len()
	}
	h.writeJSON(r.Context(), w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"records": records,
	})
}

// Get serves GET /recommend?q=...
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query().Get("q")

	slog.InfoContext(ctx, "recommend request", "mode", retrieval.ModeText, "query", q)

	results, err := h.service.Recommend(ctx, q)
	h.respond(ctx, w, results, err)
}

// Post serves POST /recommend with either a query or a precomputed vector.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", "invalid JSON body", http.StatusBadRequest)
		return
	}

	switch {
	case req.Query != nil && req.Vector != nil:
		h.writeError(ctx, w, "VALIDATION_ERROR", "provide either query or vector, not both", http.StatusBadRequest)
	case req.Query != nil:
		slog.InfoContext(ctx, "recommend request", "mode", retrieval.ModeText, "query", *req.Query)
		results, err := h.service.Recommend(ctx, *req.Query)
		h.respond(ctx, w, results, err)
	case req.Vector != nil:
		slog.InfoContext(ctx, "recommend request", "mode", retrieval.ModeVector, "dimension", len(req.Vector))
		results, err := h.service.RecommendVector(ctx, req.Vector)
		h.respond(ctx, w, results, err)
	default:
		h.writeError(ctx, w, "VALIDATION_ERROR", "query or vector is required", http.StatusBadRequest)
	}
}

func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, results []retrieval.Recommendation, err error) {
	if err != nil {
		switch {
		case errors.Is(err, retrieval.ErrEmptyQuery), errors.Is(err, retrieval.ErrInvalidVector):
			h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		case errors.Is(err, retrieval.ErrEmbedding):
			slog.ErrorContext(ctx, "query embedding failed", "error", err)
			h.writeError(ctx, w, "EMBEDDING_ERROR", err.Error(), http.StatusBadGateway)
		default:
			slog.ErrorContext(ctx, "recommendation failed", "error", err)
			h.writeError(ctx, w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if results == nil {
		results = []retrieval.Recommendation{}
	}
	h.writeJSON(ctx, w, http.StatusOK, results)
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
