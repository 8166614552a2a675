package audiodex

import (
	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/domain/search/result"
	collectionuc "github.com/kailas-cloud/audiodex/internal/usecase/collection"
)

// Document is a stored descriptor document, as accepted by Upsert.
type Document = descriptor.Document

// StoredDocument is a document in display form, with the best key estimate resolved.
type StoredDocument = result.Document

// Row is one search hit: the id plus the descriptors the query referenced.
type Row = result.Row

// CollectionInfo describes a registered collection.
type CollectionInfo = collectionuc.Info

// BatchResult is the outcome of one document in a batch upsert.
type BatchResult struct {
	ID  string
	Err error
}

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation       = domain.ErrValidation
	ErrNotFound         = domain.ErrNotFound
	ErrDocumentNotFound = domain.ErrDocumentNotFound
	ErrExecution        = domain.ErrExecution
)
