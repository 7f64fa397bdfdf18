package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/karthik738/AssessmentRecommendation/internal/middleware"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

var ErrInvalid = errors.New("invalid feedback")

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Record validates f and persists it, tagging it with the request's
// correlation id.
func (s *Service) Record(ctx context.Context, f *Feedback) error {
	f.Query = strings.TrimSpace(f.Query)
	f.URL = strings.TrimSpace(f.URL)
	f.Comment = strings.TrimSpace(f.Comment)

	if f.Query == "" {
		return fmt.Errorf("%w: query is required", ErrInvalid)
	}
	if f.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalid)
	}
	if f.Score != 0 && f.Score != 1 {
		return fmt.Errorf("%w: score must be 0 or 1", ErrInvalid)
	}
	f.CorrelationID = middleware.GetCorrelationID(ctx)

	if err := s.repo.Save(ctx, f); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	s.logger.InfoContext(ctx, "feedback recorded", "id", f.ID, "url", f.URL, "score", f.Score)
	return nil
}

// List returns the most recent entries. Limits outside (0, MaxListLimit]
// are clamped.
func (s *Service) List(ctx context.Context, limit int) ([]Feedback, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
