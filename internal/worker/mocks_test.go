package worker_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/karthik738/AssessmentRecommendation/internal/catalog"
	"github.com/karthik738/AssessmentRecommendation/internal/index"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

func newStore(t *testing.T, n int) *catalog.Store {
	t.Helper()
	x := index.NewFlatL2(2)
	records := make([]catalog.Record, n)
	for i := range records {
		require.NoError(t, x.Add(i, []float32{float32(i), 1}))
		records[i] = catalog.Record{ID: i, Name: fmt.Sprintf("Assessment %d", i), Text: fmt.Sprintf("Name: Assessment %d", i)}
	}
	s, err := catalog.NewStore(x, records, 2)
	require.NoError(t, err)
	return s
}

// writeArtifacts persists a store with n records and returns its paths.
func writeArtifacts(t *testing.T, n int) (string, string) {
	t.Helper()
	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.db")
	docstorePath := filepath.Join(dir, "docstore.json")
	require.NoError(t, catalog.WriteArtifacts(newStore(t, n), indexPath, docstorePath))
	return indexPath, docstorePath
}

func loader(dim int) func(string, string) (*catalog.Store, error) {
	return func(indexPath, docstorePath string) (*catalog.Store, error) {
		return catalog.Open(indexPath, docstorePath, dim)
	}
}
