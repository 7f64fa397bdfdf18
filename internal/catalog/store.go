package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/karthik738/AssessmentRecommendation/internal/index"
)

var (
	ErrCountMismatch = errors.New("index and docstore record counts differ")
	ErrIDMismatch    = errors.New("index and docstore record ids differ")
	ErrEmptyText     = errors.New("record text is empty")
)

// Match is a record returned by a nearest-neighbour search.
type Match struct {
	Record   Record
	Distance float32
}

// Store pairs the vector index with the records it was built from. It is
// read-only once constructed and safe for concurrent use.
type Store struct {
	index       *index.FlatL2
	records     []Record
	fingerprint string
}

// Fingerprint hashes the id, source and text of every record in order. Two
// builds share a fingerprint only when their docstores hold the same records.
func Fingerprint(records []Record) string {
	h := sha256.New()
	for _, r := range records {
		fmt.Fprintf(h, "%d\x00%s\x00%d:%s\x00", r.ID, r.SourceURL, len(r.Text), r.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NewStore validates that x and records describe the same catalog: equal
// counts, the same id at every position, the expected dimension when dim is
// positive, and, for an index loaded from disk, the fingerprint of the
// records it was saved with.
func NewStore(x *index.FlatL2, records []Record, dim int) (*Store, error) {
	if dim > 0 && x.Dim() != dim {
		return nil, fmt.Errorf("%w: index has %d, configured %d", index.ErrDimensionMismatch, x.Dim(), dim)
	}
	if x.Len() != len(records) {
		return nil, fmt.Errorf("%w: index has %d, docstore has %d", ErrCountMismatch, x.Len(), len(records))
	}
	for i, id := range x.IDs() {
		if records[i].ID != id {
			return nil, fmt.Errorf("%w: position %d has index id %d, docstore id %d", ErrIDMismatch, i, id, records[i].ID)
		}
		if strings.TrimSpace(records[i].Text) == "" {
			return nil, fmt.Errorf("%w: id %d", ErrEmptyText, id)
		}
	}

	fp := Fingerprint(records)
	if want := x.Fingerprint(); want != "" && want != fp {
		return nil, fmt.Errorf("%w: index was built from docstore %.12s, got %.12s", ErrIDMismatch, want, fp)
	}
	return &Store{index: x, records: records, fingerprint: fp}, nil
}

// Open loads both artifacts from disk and validates them. An index without a
// recorded fingerprint cannot be tied to a docstore and is rejected.
func Open(indexPath, docstorePath string, dim int) (*Store, error) {
	x, err := index.Load(indexPath)
	if err != nil {
		return nil, err
	}
	if x.Fingerprint() == "" {
		return nil, fmt.Errorf("%w: index %s carries no docstore fingerprint", ErrIDMismatch, indexPath)
	}
	records, err := LoadDocstore(docstorePath)
	if err != nil {
		return nil, err
	}
	return NewStore(x, records, dim)
}

func (s *Store) Search(vec []float32, k int) ([]Match, error) {
	hits, err := s.index.Search(vec, k)
	if err != nil {
		return nil, err
	}
	out := make([]Match, len(hits))
	for i, h := range hits {
		out[i] = Match{Record: s.records[h.Position], Distance: h.Distance}
	}
	return out, nil
}

// Names returns the display names of every record in index order.
func (s *Store) Names() []string {
	names := make([]string, len(s.records))
	for i, r := range s.records {
		names[i] = r.Name
	}
	return names
}

// Find returns the first record whose name matches name, ignoring case and
// surrounding whitespace.
func (s *Store) Find(name string) (Record, bool) {
	name = strings.TrimSpace(name)
	for _, r := range s.records {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return Record{}, false
}

func (s *Store) Len() int { return len(s.records) }

func (s *Store) Dim() int { return s.index.Dim() }

// Holder publishes the current Store to readers. Swap replaces it in one
// step, so a request sees either the old catalog or the new one.
type Holder struct {
	current atomic.Pointer[Store]
}

func NewHolder(s *Store) *Holder {
	h := &Holder{}
	h.current.Store(s)
	return h
}

func (h *Holder) Store() *Store {
	return h.current.Load()
}

// Swap installs s and returns the store it replaced.
func (h *Holder) Swap(s *Store) *Store {
	return h.current.Swap(s)
}
