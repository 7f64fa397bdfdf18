package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// DefaultEmbeddingSize is what EmbeddingServer returns when the request does
// not ask for a dimension, as older OpenAI models do.
const DefaultEmbeddingSize = 1536

// EmbeddingServer serves the OpenAI embeddings endpoint. Each response
// vector has the requested "dimensions" length, or DefaultEmbeddingSize.
func EmbeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Dimensions int `json:"dimensions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		size := req.Dimensions
		if size <= 0 {
			size = DefaultEmbeddingSize
		}
		vec := make([]float32, size)
		vec[0] = 1

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "test",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}
