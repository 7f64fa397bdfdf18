package index

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrDuplicateID       = errors.New("duplicate record id")
)

// Hit is one nearest-neighbour match. Position is the ordinal of the vector
// inside the index, ID the record id stored next to it.
type Hit struct {
	Position int
	ID       int
	Distance float32
}

// FlatL2 is an exact brute-force index under squared euclidean distance.
// It is filled once and then only read, so Search needs no locking.
type FlatL2 struct {
	dim         int
	ids         []int
	vectors     [][]float32
	seen        map[int]struct{}
	fingerprint string
}

func NewFlatL2(dim int) *FlatL2 {
	return &FlatL2{dim: dim, seen: make(map[int]struct{})}
}

func (x *FlatL2) Dim() int { return x.dim }

func (x *FlatL2) Len() int { return len(x.vectors) }

// Fingerprint identifies the record set the index was saved with. It is
// empty for indexes that were built in memory and never loaded from disk.
func (x *FlatL2) Fingerprint() string { return x.fingerprint }

// IDs returns the record ids in insertion order.
func (x *FlatL2) IDs() []int {
	return slices.Clone(x.ids)
}

// Vector returns the stored vector at position i.
func (x *FlatL2) Vector(i int) []float32 {
	return x.vectors[i]
}

// Add appends a vector for the given record id.
func (x *FlatL2) Add(id int, vec []float32) error {
	if len(vec) != x.dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, x.dim, len(vec))
	}
	if _, ok := x.seen[id]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	x.seen[id] = struct{}{}
	x.ids = append(x.ids, id)
	x.vectors = append(x.vectors, slices.Clone(vec))
	return nil
}

// Search returns the min(k, Len()) nearest vectors ordered by ascending
// distance. Equal distances keep insertion order.
func (x *FlatL2) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, x.dim, len(query))
	}
	if k <= 0 || len(x.vectors) == 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = Hit{Position: i, ID: x.ids[i], Distance: squaredL2(query, v)}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
