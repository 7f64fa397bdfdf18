package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/karthik738/AssessmentRecommendation/internal/config"
	"github.com/karthik738/AssessmentRecommendation/internal/middleware"
	"github.com/karthik738/AssessmentRecommendation/internal/worker"
)

func TestPublishIndexBuilt(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", config.TopicIndexBuilt, mock.MatchedBy(func(body []byte) bool {
		var event worker.IndexBuiltEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return false
		}
		return event.IndexPath == "data/index.db" && event.Records == 42 && event.CorrelationID == "build-7"
	})).Return(nil)

	ctx := middleware.WithCorrelationID(context.Background(), "build-7")
	err := worker.PublishIndexBuilt(ctx, pub, worker.IndexBuiltEvent{
		IndexPath:    "data/index.db",
		DocstorePath: "data/docstore.json",
		Records:      42,
		Dimension:    768,
	})

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestPublishIndexBuilt_Error(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", config.TopicIndexBuilt, mock.Anything).Return(errors.New("nsqd unavailable"))

	err := worker.PublishIndexBuilt(context.Background(), pub, worker.IndexBuiltEvent{IndexPath: "a", DocstorePath: "b"})
	assert.EqualError(t, err, "nsqd unavailable")
}

func TestPublishIndexBuilt_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	pub := new(MockPublisher)
	pub.On("Publish", config.TopicIndexBuilt, mock.Anything).Run(func(mock.Arguments) { <-block }).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := worker.PublishIndexBuilt(ctx, pub, worker.IndexBuiltEvent{IndexPath: "a", DocstorePath: "b"})
	assert.ErrorIs(t, err, context.Canceled)
}
