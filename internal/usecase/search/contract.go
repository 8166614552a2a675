package search

import (
	"context"

	domcol "github.com/kailas-cloud/audiodex/internal/domain/collection"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

// Repository executes compiled plans against the descriptor store.
type Repository interface {
	Execute(ctx context.Context, collection string, stages []pipeline.Stage) ([]pipeline.Row, error)
}

// CollectionReader resolves collections and their namespaces.
type CollectionReader interface {
	Get(name string) (domcol.Collection, error)
}

// Resolver rewrites query-by-example modifiers into criterion text.
type Resolver interface {
	Resolve(ctx context.Context, audio []byte, params map[string]string) (map[string]string, error)
}

// ResultObserver records result counts (prometheus.Histogram).
type ResultObserver interface {
	Observe(v float64)
}
