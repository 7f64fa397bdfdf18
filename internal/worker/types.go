package worker

import (
	"github.com/karthik738/AssessmentRecommendation/internal/catalog"
)

// StoreLoader opens an artifact pair. catalog.Open with a fixed dimension
// is the production implementation.
type StoreLoader func(indexPath, docstorePath string) (*catalog.Store, error)

type StoreSwapper interface {
	Swap(s *catalog.Store) *catalog.Store
}

type Publisher interface {
	Publish(topic string, body []byte) error
}
