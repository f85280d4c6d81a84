package ingest

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// BlobFetcher downloads raw document bytes from object storage.
type BlobFetcher interface {
	Fetch(ctx context.Context, bucket, path string) ([]byte, error)
}

// PageExtractor pulls plain text from one page of a document.
type PageExtractor interface {
	PageText(content []byte, page int) (string, error)
}

// BatchEmbedder vectorizes multiple texts in one call, preserving order.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// UnitWriter persists an index unit atomically.
type UnitWriter interface {
	PutUnit(ctx context.Context, unit domain.IndexUnit) error
}
