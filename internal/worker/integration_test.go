package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthik738/AssessmentRecommendation/internal/catalog"
	"github.com/karthik738/AssessmentRecommendation/internal/config"
	"github.com/karthik738/AssessmentRecommendation/internal/testutils"
	"github.com/karthik738/AssessmentRecommendation/internal/worker"
)

func TestReloadOverNSQ_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	holder := catalog.NewHolder(newStore(t, 1))
	reload := worker.NewReloadConsumer(loader(2), holder)

	consumer, err := nsq.NewConsumer(config.TopicIndexBuilt, "test-reload", nsq.NewConfig())
	require.NoError(t, err)
	consumer.AddHandler(reload)
	defer consumer.Stop()

	indexPath, docstorePath := writeArtifacts(t, 4)
	err = worker.PublishIndexBuilt(context.Background(), s.NSQ, worker.IndexBuiltEvent{
		IndexPath:    indexPath,
		DocstorePath: docstorePath,
		Records:      4,
		Dimension:    2,
	})
	require.NoError(t, err)

	require.NoError(t, consumer.ConnectToNSQD(s.NSQDAddr))

	assert.Eventually(t, func() bool {
		return holder.Store().Len() == 4
	}, 10*time.Second, 100*time.Millisecond)
}
