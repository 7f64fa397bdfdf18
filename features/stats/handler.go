package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/karthik738/AssessmentRecommendation/internal/catalog"
	"github.com/karthik738/AssessmentRecommendation/internal/middleware"
)

type Catalog interface {
	Store() *catalog.Store
}

type FeedbackCounter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	catalog  Catalog
	feedback FeedbackCounter
}

// NewHandler builds the stats handler. f may be nil when the feedback store
// is disabled.
func NewHandler(c Catalog, f FeedbackCounter) *Handler {
	return &Handler{catalog: c, feedback: f}
}

type StatsResponse struct {
	Records   int  `json:"records"`
	Dimension int  `json:"dimension"`
	Feedback  *int `json:"feedback,omitempty"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slog.InfoContext(ctx, "getting stats")

	var resp StatsResponse
	if s := h.catalog.Store(); s != nil {
		resp.Records = s.Len()
		resp.Dimension = s.Dim()
	}

	if h.feedback != nil {
		n, err := h.feedback.Count(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to count feedback", "error", err)
			h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count feedback", http.StatusInternalServerError)
			return
		}
		resp.Feedback = &n
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
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
