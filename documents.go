package audiodex

import (
	"context"
	"fmt"

	batchuc "github.com/kailas-cloud/audiodex/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/audiodex/internal/usecase/document"
)

// DocumentService manages descriptor documents in a single collection.
type DocumentService struct {
	collection string
	docSvc     *documentuc.Service
	batchSvc   *batchuc.Service
}

// Upsert validates and stores a document, replacing any previous version.
func (s *DocumentService) Upsert(ctx context.Context, doc Document) error {
	if err := s.docSvc.Upsert(ctx, s.collection, &doc); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// Get returns a stored document by id.
func (s *DocumentService) Get(ctx context.Context, id string) (StoredDocument, error) {
	doc, err := s.docSvc.Get(ctx, s.collection, id)
	if err != nil {
		return StoredDocument{}, fmt.Errorf("get: %w", err)
	}
	return doc, nil
}

// UpsertBatch stores documents concurrently. Results keep input order;
// one failing document does not stop the others.
func (s *DocumentService) UpsertBatch(ctx context.Context, docs []Document) []BatchResult {
	results := s.batchSvc.Upsert(ctx, s.collection, docs)
	out := make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = BatchResult{ID: r.ID(), Err: r.Err()}
	}
	return out
}
