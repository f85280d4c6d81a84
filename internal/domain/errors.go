package domain

import "errors"

var (
	// ErrInvalidJob signals a malformed ingestion job (not retried).
	ErrInvalidJob = errors.New("invalid ingestion job")
	// ErrInvalidQuery signals a malformed query request (not retried).
	ErrInvalidQuery = errors.New("invalid query request")
	// ErrInvalidSplitConfig signals an invalid chunk splitting configuration.
	ErrInvalidSplitConfig = errors.New("invalid split configuration")

	// ErrBlobNotFound signals a missing object in blob storage.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrMalformedDocument signals an unparseable source document.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrPageOutOfRange signals a page number beyond the document's pages.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrRateLimited signals a rate limit hit at a model provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a generative model failure.
	ErrCompletionProviderError = errors.New("completion provider error")
)
