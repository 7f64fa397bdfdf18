package feedback_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthik738/AssessmentRecommendation/features/feedback"
	"github.com/karthik738/AssessmentRecommendation/internal/testutils"
)

func TestFeedbackRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := feedback.NewPostgresRepo(s.DB)
	ctx := context.Background()

	first := &feedback.Feedback{Query: "java", URL: "https://x/java", Score: 1}
	require.NoError(t, repo.Save(ctx, first))
	assert.NotEmpty(t, first.ID)

	time.Sleep(50 * time.Millisecond)

	second := &feedback.Feedback{Query: "opq", URL: "https://x/opq", Score: 0, Comment: "not relevant"}
	require.NoError(t, repo.Save(ctx, second))

	items, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID, "newest feedback should be first")
	assert.Equal(t, "not relevant", items[0].Comment)

	items, err = repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// score outside {0,1} is rejected by the table constraint
	err = repo.Save(ctx, &feedback.Feedback{Query: "q", URL: "u", Score: 3})
	assert.Error(t, err)
}
