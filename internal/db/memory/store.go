// Package memory is a process-local descriptor store that evaluates every stage in process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
	"github.com/kailas-cloud/audiodex/internal/pipeline/eval"
)

var _ db.DescriptorStore = (*Store)(nil)

// Store keeps documents in maps keyed by collection and id.
type Store struct {
	mu   sync.RWMutex
	docs map[string]map[string]descriptor.Document
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]map[string]descriptor.Document)}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// EnsureCollection registers an empty collection.
func (s *Store) EnsureCollection(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[collection]; !ok {
		s.docs[collection] = make(map[string]descriptor.Document)
	}
	return nil
}

// Upsert stores doc, replacing any previous version.
func (s *Store) Upsert(_ context.Context, collection string, doc descriptor.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.docs[collection]
	if !ok {
		c = make(map[string]descriptor.Document)
		s.docs[collection] = c
	}
	c[doc.ID] = doc
	return nil
}

// Get returns a stored document or db.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, collection, id string) (descriptor.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[collection][id]
	if !ok {
		return descriptor.Document{}, db.ErrKeyNotFound
	}
	return doc, nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[collection]), nil
}

// Execute runs the stages over a snapshot of the collection.
func (s *Store) Execute(
	ctx context.Context, collection string, stages []pipeline.Stage,
) ([]pipeline.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, &db.Error{Op: db.OpExecute, Err: err}
	}

	s.mu.RLock()
	docs := make([]descriptor.Document, 0, len(s.docs[collection]))
	for _, d := range s.docs[collection] {
		docs = append(docs, d)
	}
	s.mu.RUnlock()

	// Map iteration order is random; a stable base keeps equal sort keys deterministic.
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	rows, err := eval.Run(docs, stages)
	if err != nil {
		return nil, &db.Error{Op: db.OpExecute, Err: err}
	}
	return rows, nil
}
