package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nsqio/go-nsq"

	"github.com/karthik738/AssessmentRecommendation/internal/middleware"
)

var ErrRecordCountMismatch = errors.New("artifact record count differs from event")

// ReloadConsumer swaps the served catalog when a new artifact pair is
// announced. The old store keeps serving until the new one validates.
type ReloadConsumer struct {
	load   StoreLoader
	holder StoreSwapper
}

func NewReloadConsumer(load StoreLoader, holder StoreSwapper) *ReloadConsumer {
	return &ReloadConsumer{load: load, holder: holder}
}

func (h *ReloadConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var event IndexBuiltEvent
	if err := json.Unmarshal(m.Body, &event); err != nil {
		// Poison Pill: Invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if event.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, event.CorrelationID)
	}

	if event.IndexPath == "" || event.DocstorePath == "" {
		slog.ErrorContext(ctx, "poison pill: event missing artifact paths", "index_path", event.IndexPath, "docstore_path", event.DocstorePath)
		return nil
	}

	store, err := h.load(event.IndexPath, event.DocstorePath)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load announced artifacts, keeping current catalog", "error", err, "index_path", event.IndexPath)
		return err // Retry
	}

	if event.Records > 0 && store.Len() != event.Records {
		// a newer build has replaced the files since this event was sent
		slog.WarnContext(ctx, "stale index event ignored", "error", ErrRecordCountMismatch, "expected", event.Records, "loaded", store.Len())
		return nil
	}

	old := h.holder.Swap(store)
	previous := 0
	if old != nil {
		previous = old.Len()
	}
	slog.InfoContext(ctx, "catalog reloaded", "records", store.Len(), "previous_records", previous, "dimension", store.Dim())
	return nil
}
