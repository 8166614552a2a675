package collection

import (
	"context"

	domcol "github.com/kailas-cloud/audiodex/internal/domain/collection"
)

// Registry resolves configured collections.
type Registry interface {
	Get(name string) (domcol.Collection, error)
	List() []domcol.Collection
}

// Counter reports how many documents a collection holds.
type Counter interface {
	Count(ctx context.Context, collection string) (int, error)
}
