// Package search runs tenant-scoped nearest-neighbor search over child records.
package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/repository/chunkstore"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements the query SearchRepository contract.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// NearestChildren returns the k children closest to the query vector under
// cosine distance, restricted to tenantID. The tenant filter is part of the
// FT.SEARCH expression, applied before ranking; a foreign tenant's record can
// never enter the candidate set.
func (r *Repo) NearestChildren(
	ctx context.Context, tenantID string, vector []float32, k int,
) ([]domain.ChildHit, error) {
	q := &db.KNNQuery{
		IndexName:    chunkstore.ChildIndexName,
		Filters:      []db.TagFilter{{Field: "tenant", Value: tenantID}},
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"parent_id", "content", "__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search children for tenant %s: %w", tenantID, err)
	}
	if sr == nil || sr.Total == 0 {
		return nil, nil
	}

	hits := make([]domain.ChildHit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		hits = append(hits, domain.ChildHit{
			ID:       trimChildKey(entry.Key),
			ParentID: entry.Fields["parent_id"],
			Content:  entry.Fields["content"],
			Distance: entry.Distance,
		})
	}
	return hits, nil
}

func trimChildKey(key string) string {
	const prefix = domain.KeyPrefix + "child:"
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
