package reranker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthik738/AssessmentRecommendation/internal/adapter/reranker"
	"github.com/karthik738/AssessmentRecommendation/internal/rerank"
)

var candidates = []rerank.Candidate{
	{ID: 0, Name: "Java 8 (New)", TestTypes: []string{"Knowledge & Skills"}, Duration: "11 minutes", RemoteTesting: "yes", AdaptiveIRT: "no"},
	{ID: 1, Name: "OPQ32r", RemoteTesting: "yes", AdaptiveIRT: "no"},
	{ID: 2, Name: "Verify Numerical Reasoning", RemoteTesting: "yes", AdaptiveIRT: "yes"},
}

func rankServer(t *testing.T, key string, status int, results []map[string]interface{}, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/rerank", r.URL.Path)
		assert.Equal(t, "Bearer "+key, r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClient_Rerank_Jina(t *testing.T) {
	var body map[string]interface{}
	ts := rankServer(t, "k1", http.StatusOK, []map[string]interface{}{
		{"index": 2, "relevance_score": 0.9},
		{"index": 0, "relevance_score": 0.8},
		{"index": 1, "relevance_score": 0.1},
	}, &body)

	client, err := reranker.NewClient(reranker.ProviderJina, "k1", time.Second)
	require.NoError(t, err)
	client.SetBaseURL(ts.URL + "/v1/rerank")

	out := client.Rerank(context.Background(), "numerical", candidates)
	assert.True(t, out.Reranked)
	assert.NoError(t, out.Err)
	assert.Equal(t, []int{2, 0, 1}, out.Order)
	assert.Equal(t, "jina-reranker-v1-base-en", body["model"])
	assert.Equal(t, "numerical", body["query"])
	assert.NotContains(t, body, "top_n")
}

func TestClient_Rerank_Cohere(t *testing.T) {
	var body map[string]interface{}
	ts := rankServer(t, "k2", http.StatusOK, []map[string]interface{}{
		{"index": 1, "relevance_score": 0.9},
		{"index": 1, "relevance_score": 0.9},
		{"index": 7, "relevance_score": 0.5},
	}, &body)

	client, err := reranker.NewClient(reranker.ProviderCohere, "k2", time.Second)
	require.NoError(t, err)
	client.SetBaseURL(ts.URL + "/v1/rerank")
	client.SetModel("rerank-multilingual-v3.0")

	out := client.Rerank(context.Background(), "personality", candidates)
	assert.True(t, out.Reranked)
	assert.Equal(t, []int{1}, out.Order)
	assert.Equal(t, "rerank-multilingual-v3.0", body["model"])
	assert.EqualValues(t, 3, body["top_n"])
}

func TestClient_Rerank_Fallback(t *testing.T) {
	t.Run("API Error", func(t *testing.T) {
		ts := rankServer(t, "k", http.StatusTooManyRequests, nil, nil)
		client, err := reranker.NewClient(reranker.ProviderJina, "k", time.Second)
		require.NoError(t, err)
		client.SetBaseURL(ts.URL + "/v1/rerank")

		out := client.Rerank(context.Background(), "q", candidates)
		assert.False(t, out.Reranked)
		assert.Error(t, out.Err)
		assert.Equal(t, []int{0, 1, 2}, out.Order)
	})

	t.Run("No Usable Indices", func(t *testing.T) {
		ts := rankServer(t, "k", http.StatusOK, []map[string]interface{}{{"index": 9}}, nil)
		client, err := reranker.NewClient(reranker.ProviderCohere, "k", time.Second)
		require.NoError(t, err)
		client.SetBaseURL(ts.URL + "/v1/rerank")

		out := client.Rerank(context.Background(), "q", candidates)
		assert.ErrorIs(t, out.Err, rerank.ErrNoMatches)
		assert.Equal(t, []int{0, 1, 2}, out.Order)
	})

	t.Run("No Candidates", func(t *testing.T) {
		client, err := reranker.NewClient(reranker.ProviderJina, "k", time.Second)
		require.NoError(t, err)
		out := client.Rerank(context.Background(), "q", nil)
		assert.Empty(t, out.Order)
		assert.NoError(t, out.Err)
	})
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := reranker.NewClient("voyage", "k", time.Second)
	assert.ErrorIs(t, err, reranker.ErrUnknownProvider)
}

func TestDocument(t *testing.T) {
	assert.Equal(t,
		"Java 8 (New) | Test Types: Knowledge & Skills | Duration: 11 minutes | Remote Testing: yes | Adaptive/IRT: no",
		reranker.Document(candidates[0]))
}
