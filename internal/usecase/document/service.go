package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/domain/search/result"
	"github.com/kailas-cloud/audiodex/internal/projector"
)

// Service handles descriptor document ingestion and lookup.
type Service struct {
	repo  Repository
	colls CollectionReader
}

// New creates a document service.
func New(repo Repository, colls CollectionReader) *Service {
	return &Service{repo: repo, colls: colls}
}

// Upsert normalises, validates and stores a document.
// The id namespace must belong to the collection.
func (s *Service) Upsert(ctx context.Context, collection string, doc *descriptor.Document) error {
	col, err := s.colls.Get(collection)
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}

	doc.Normalize()
	if err := doc.Validate(col.Namespaces()); err != nil {
		return domain.NewValidationError("invalid document %q: %v", doc.ID, err)
	}

	if err := s.repo.Upsert(ctx, collection, *doc); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// Get returns a stored document in display form.
func (s *Service) Get(ctx context.Context, collection, id string) (result.Document, error) {
	if _, err := s.colls.Get(collection); err != nil {
		return result.Document{}, fmt.Errorf("get collection: %w", err)
	}

	doc, err := s.repo.Get(ctx, collection, id)
	if err != nil {
		return result.Document{}, fmt.Errorf("get document: %w", err)
	}
	return projector.Display(doc), nil
}
