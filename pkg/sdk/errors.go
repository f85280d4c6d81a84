package ragdex

import (
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidJob              = domain.ErrInvalidJob
	ErrInvalidQuery            = domain.ErrInvalidQuery
	ErrBlobNotFound            = domain.ErrBlobNotFound
	ErrMalformedDocument       = domain.ErrMalformedDocument
	ErrPageOutOfRange          = domain.ErrPageOutOfRange
	ErrRateLimited             = domain.ErrRateLimited
	ErrEmbeddingQuotaExceeded  = domain.ErrEmbeddingQuotaExceeded
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrCompletionProviderError = domain.ErrCompletionProviderError
)

// sentinelsByCode maps API error codes to sentinel errors.
// "validation_failed" is operation-specific and resolved by the caller.
var sentinelsByCode = map[string]error{
	"blob_not_found":            ErrBlobNotFound,
	"malformed_document":        ErrMalformedDocument,
	"page_out_of_range":         ErrPageOutOfRange,
	"rate_limited":              ErrRateLimited,
	"embedding_quota_exceeded":  ErrEmbeddingQuotaExceeded,
	"embedding_provider_error":  ErrEmbeddingProviderError,
	"completion_provider_error": ErrCompletionProviderError,
}

// APIError is returned for any non-2xx response. It wraps the matching
// sentinel error when the server returned a known code.
type APIError struct {
	StatusCode int
	Code       string
	Message    string

	sentinel error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ragdex: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap lets errors.Is match the sentinel for the server's error code.
func (e *APIError) Unwrap() error {
	return e.sentinel
}
