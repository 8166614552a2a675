package request

import (
	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/search/mode"
)

// Paging bounds for search results.
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultPaging returns one result per page, at most 100.
func DefaultPaging() Paging { return Paging{DefaultLimit: 1, MaxLimit: 100} }

// Request is a validated search request.
type Request struct {
	collection string
	params     map[string]string
	namespaces string
	offset     int
	limit      int
	audio      []byte
	searchMode mode.Mode
}

// New validates a search request. A zero limit takes the default.
// A non-empty audio body switches to query-by-example mode, where params act as modifiers.
func New(
	collection string,
	params map[string]string,
	namespaces string,
	offset, limit int,
	audio []byte,
	paging Paging,
) (Request, error) {
	if collection == "" {
		return Request{}, domain.NewValidationError("collection is required")
	}
	if limit == 0 {
		limit = paging.DefaultLimit
	}
	if limit < 1 || limit > paging.MaxLimit {
		return Request{}, domain.NewValidationError("limit must be between 1 and %d, got %d", paging.MaxLimit, limit)
	}
	if offset < 0 {
		return Request{}, domain.NewValidationError("offset must be >= 0, got %d", offset)
	}

	m := mode.Text
	if len(audio) > 0 {
		m = mode.Example
		if len(params) == 0 {
			return Request{}, domain.NewValidationError("at least one search criterion is required")
		}
	}

	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}

	return Request{
		collection: collection,
		params:     copied,
		namespaces: namespaces,
		offset:     offset,
		limit:      limit,
		audio:      audio,
		searchMode: m,
	}, nil
}

// Collection returns the target collection name.
func (r *Request) Collection() string { return r.collection }

// Params returns descriptor parameters (criterion text, or modifiers in example mode).
func (r *Request) Params() map[string]string { return r.params }

// Namespaces returns the raw comma-separated namespace restriction.
func (r *Request) Namespaces() string { return r.namespaces }

// Offset returns the number of results to skip.
func (r *Request) Offset() int { return r.offset }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Audio returns the query-by-example sample.
func (r *Request) Audio() []byte { return r.audio }

// Mode returns how criteria are supplied.
func (r *Request) Mode() mode.Mode { return r.searchMode }
