// Package descriptor adapts a descriptor store to the use case layer.
package descriptor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

// store is the consumer interface for descriptor documents (ISP).
type store interface {
	Execute(ctx context.Context, collection string, stages []pipeline.Stage) ([]pipeline.Row, error)
	Upsert(ctx context.Context, collection string, doc descriptor.Document) error
	Get(ctx context.Context, collection, id string) (descriptor.Document, error)
	Count(ctx context.Context, collection string) (int, error)
	EnsureCollection(ctx context.Context, collection string) error
}

// Repo implements the search and document use case repositories.
type Repo struct {
	store           store
	driver          string
	executeDuration *prometheus.HistogramVec
}

// New creates a descriptor repository.
// executeDuration is a histogram vec with label "driver"; nil disables timing.
func New(s store, driver string, executeDuration *prometheus.HistogramVec) *Repo {
	return &Repo{store: s, driver: driver, executeDuration: executeDuration}
}

// Execute runs a compiled plan. Store failures become ExecutionErrors carrying the store's message.
func (r *Repo) Execute(ctx context.Context, collection string, stages []pipeline.Stage) ([]pipeline.Row, error) {
	start := time.Now()
	rows, err := r.store.Execute(ctx, collection, stages)
	if r.executeDuration != nil {
		r.executeDuration.WithLabelValues(r.driver).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, domain.NewExecutionError(err)
	}
	return rows, nil
}

// Upsert stores a validated document.
func (r *Repo) Upsert(ctx context.Context, collection string, doc descriptor.Document) error {
	if err := r.store.Upsert(ctx, collection, doc); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

// Get returns a stored document by id.
func (r *Repo) Get(ctx context.Context, collection, id string) (descriptor.Document, error) {
	doc, err := r.store.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return descriptor.Document{}, domain.ErrDocumentNotFound
		}
		return descriptor.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// Count returns the number of documents stored for a collection.
func (r *Repo) Count(ctx context.Context, collection string) (int, error) {
	n, err := r.store.Count(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// EnsureCollections prepares backend structures for every collection.
func (r *Repo) EnsureCollections(ctx context.Context, names []string) error {
	for _, name := range names {
		if err := r.store.EnsureCollection(ctx, name); err != nil {
			return fmt.Errorf("ensure collection %s: %w", name, err)
		}
	}
	return nil
}
