package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/karthik738/AssessmentRecommendation/internal/config"
	"github.com/karthik738/AssessmentRecommendation/internal/middleware"
)

const publishTimeout = 5 * time.Second

var ErrPublishTimeout = errors.New("timeout waiting for NSQ publish")

// PublishIndexBuilt sends event on config.TopicIndexBuilt, stamping the
// correlation id from ctx when the event has none.
func PublishIndexBuilt(ctx context.Context, pub Publisher, event IndexBuiltEvent) error {
	if event.CorrelationID == "" {
		event.CorrelationID = middleware.GetCorrelationID(ctx)
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode index event: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- pub.Publish(config.TopicIndexBuilt, body)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(publishTimeout):
		return ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
