package query

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// SearchRepository runs tenant-scoped nearest-neighbor search over children.
type SearchRepository interface {
	NearestChildren(ctx context.Context, tenantID string, vector []float32, k int) ([]domain.ChildHit, error)
}

// ParentReader resolves parent records by id, reporting which ids were missing.
type ParentReader interface {
	GetParents(ctx context.Context, ids []string) (parents []domain.Parent, missing []string, err error)
}

// HistoryStore reads and appends conversation turns per session.
type HistoryStore interface {
	Turns(ctx context.Context, sessionID string) ([]domain.Turn, error)
	Append(ctx context.Context, sessionID string, turns []domain.Turn) error
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
