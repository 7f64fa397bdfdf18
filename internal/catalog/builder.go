package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/karthik738/AssessmentRecommendation/internal/index"
)

var ErrNoProducts = errors.New("catalog source contains no products")

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProgressFunc is called after each record is embedded.
type ProgressFunc func(done, total int)

// Builder turns scraped products into a validated Store.
type Builder struct {
	embedder Embedder
	dim      int
	timeout  time.Duration
	progress ProgressFunc
}

// NewBuilder returns a builder that embeds each record with e. A dim of zero
// takes the dimension from the first embedding.
func NewBuilder(e Embedder, dim int, timeout time.Duration) *Builder {
	return &Builder{embedder: e, dim: dim, timeout: timeout}
}

func (b *Builder) WithProgress(fn ProgressFunc) *Builder {
	b.progress = fn
	return b
}

// Build embeds every product in order. Any empty text or provider failure
// aborts the whole build; no placeholder vectors are written.
func (b *Builder) Build(ctx context.Context, products []Product) (*Store, error) {
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	records := make([]Record, len(products))
	for i, p := range products {
		text := Flatten(p)
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: product %d (%q)", ErrEmptyText, i, p.Name)
		}
		records[i] = Record{ID: i, Name: p.Name, SourceURL: p.Link, Text: text}
	}

	var x *index.FlatL2
	if b.dim > 0 {
		x = index.NewFlatL2(b.dim)
	}

	for i, r := range records {
		vec, err := b.embed(ctx, r.Text)
		if err != nil {
			slog.ErrorContext(ctx, "embedding failed during build", "id", r.ID, "name", r.Name, "error", err)
			return nil, fmt.Errorf("failed to embed record %d (%q): %w", r.ID, r.Name, err)
		}
		if x == nil {
			x = index.NewFlatL2(len(vec))
		}
		if err := x.Add(r.ID, vec); err != nil {
			return nil, fmt.Errorf("record %d: %w", r.ID, err)
		}
		if b.progress != nil {
			b.progress(i+1, len(records))
		}
	}

	return NewStore(x, records, b.dim)
}

func (b *Builder) embed(ctx context.Context, text string) ([]float32, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	return b.embedder.Embed(ctx, text)
}

// WriteArtifacts persists the store as an index file and a docstore file.
// Both are written next to their targets and renamed into place, so readers
// never see a partially written file. The index records the docstore's
// fingerprint, so a pair left half-replaced by a failed rename fails Open.
func WriteArtifacts(s *Store, indexPath, docstorePath string) error {
	for _, p := range []string{indexPath, docstorePath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return err
		}
	}

	indexTmp := indexPath + ".tmp"
	docTmp := docstorePath + ".tmp"

	if err := index.Save(indexTmp, s.index, s.fingerprint); err != nil {
		return err
	}
	if err := SaveDocstore(docTmp, s.records); err != nil {
		_ = os.Remove(indexTmp)
		return fmt.Errorf("failed to write docstore: %w", err)
	}

	if err := os.Rename(indexTmp, indexPath); err != nil {
		return fmt.Errorf("failed to move index into place: %w", err)
	}
	if err := os.Rename(docTmp, docstorePath); err != nil {
		return fmt.Errorf("failed to move docstore into place: %w", err)
	}
	return nil
}
