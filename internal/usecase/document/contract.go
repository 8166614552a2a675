package document

import (
	"context"

	domcol "github.com/kailas-cloud/audiodex/internal/domain/collection"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

// Repository defines the storage contract for descriptor documents.
type Repository interface {
	Upsert(ctx context.Context, collection string, doc descriptor.Document) error
	Get(ctx context.Context, collection, id string) (descriptor.Document, error)
}

// CollectionReader resolves collections and their namespaces.
type CollectionReader interface {
	Get(name string) (domcol.Collection, error)
}
