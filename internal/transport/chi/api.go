package chi

import (
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

// ErrorResponseCode is the machine-readable error class returned to clients.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest         ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed   ErrorResponseCode = "validation_failed"
	ErrorResponseCodeCollectionNotFound ErrorResponseCode = "collection_not_found"
	ErrorResponseCodeDocumentNotFound   ErrorResponseCode = "document_not_found"
	ErrorResponseCodeUpstreamError      ErrorResponseCode = "upstream_error"
	ErrorResponseCodeExecutionFailed    ErrorResponseCode = "execution_failed"
	ErrorResponseCodeRateLimited        ErrorResponseCode = "rate_limited"
	ErrorResponseCodePayloadTooLarge    ErrorResponseCode = "payload_too_large"
	ErrorResponseCodeUnauthorized       ErrorResponseCode = "unauthorized"
	ErrorResponseCodeInternalError      ErrorResponseCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// CollectionResponse describes one collection.
type CollectionResponse struct {
	Name          string   `json:"name"`
	Namespaces    []string `json:"namespaces"`
	DocumentCount *int     `json:"document_count,omitempty"`
}

// BatchUpsertRequest carries documents for POST .../documents/batch.
type BatchUpsertRequest struct {
	Documents []descriptor.Document `json:"documents"`
}

// BatchResultItem is one item's outcome.
type BatchResultItem struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// BatchUpsertResponse summarises a batch upsert.
type BatchUpsertResponse struct {
	Items     []BatchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
