package testutils

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/karthik738/AssessmentRecommendation/internal/catalog"
	"github.com/karthik738/AssessmentRecommendation/internal/index"
)

// WriteCatalog persists a small catalog of dim-dimensional vectors, one
// record per name, into a temp dir and returns the index and docstore paths.
// Record i's vector has a single non-zero component so every record is its
// own nearest neighbour.
func WriteCatalog(t *testing.T, dim int, names ...string) (string, string) {
	t.Helper()

	x := index.NewFlatL2(dim)
	records := make([]catalog.Record, len(names))
	for i, name := range names {
		vec := make([]float32, dim)
		vec[i%dim] = float32(i/dim + 1)
		require.NoError(t, x.Add(i, vec))

		p := catalog.Product{
			Name:          name,
			RemoteTesting: "Yes",
			AdaptiveIRT:   "No",
			TestTypes:     []string{"Knowledge & Skills"},
			Link:          fmt.Sprintf("https://example.com/%d", i),
		}
		records[i] = catalog.Record{ID: i, Name: name, SourceURL: p.Link, Text: catalog.Flatten(p)}
	}

	store, err := catalog.NewStore(x, records, dim)
	require.NoError(t, err)

	dir := t.TempDir()
	indexPath := filepath.Join(dir, "index.db")
	docstorePath := filepath.Join(dir, "docstore.json")
	require.NoError(t, catalog.WriteArtifacts(store, indexPath, docstorePath))
	return indexPath, docstorePath
}

// UnitVector returns the query vector nearest to record i of a WriteCatalog
// catalog.
func UnitVector(dim, i int) []float32 {
	vec := make([]float32, dim)
	vec[i%dim] = float32(i/dim + 1)
	return vec
}
