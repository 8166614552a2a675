package descriptor

import (
	"context"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	executeFn func(ctx context.Context, collection string, stages []pipeline.Stage) ([]pipeline.Row, error)
	upsertFn  func(ctx context.Context, collection string, doc descriptor.Document) error
	getFn     func(ctx context.Context, collection, id string) (descriptor.Document, error)
	countFn   func(ctx context.Context, collection string) (int, error)
	ensureFn  func(ctx context.Context, collection string) error
}

func (m *mockStore) Execute(ctx context.Context, collection string, stages []pipeline.Stage) ([]pipeline.Row, error) {
	if m.executeFn != nil {
		return m.executeFn(ctx, collection, stages)
	}
	return nil, nil
}

func (m *mockStore) Upsert(ctx context.Context, collection string, doc descriptor.Document) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, collection, doc)
	}
	return nil
}

func (m *mockStore) Get(ctx context.Context, collection, id string) (descriptor.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, collection, id)
	}
	return descriptor.Document{}, db.ErrKeyNotFound
}

func (m *mockStore) Count(ctx context.Context, collection string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, collection)
	}
	return 0, nil
}

func (m *mockStore) EnsureCollection(ctx context.Context, collection string) error {
	if m.ensureFn != nil {
		return m.ensureFn(ctx, collection)
	}
	return nil
}
