package batch

import (
	"context"

	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

// DocumentUpserter validates and stores one document (usecase/document.Service).
type DocumentUpserter interface {
	Upsert(ctx context.Context, collection string, doc *descriptor.Document) error
}
