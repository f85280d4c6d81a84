// Package chunkstore persists parent and child chunk records and owns the
// child vector index. One page job's records are written as a single
// transaction so retrieval never observes a half-indexed page.
package chunkstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

// ChildIndexName is the FT index over child records.
var ChildIndexName = domain.KeyPrefix + "child:idx"

// store is the consumer interface for chunk persistence (ISP).
type store interface {
	TxHSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig tunes the child vector index.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the ingest UnitWriter and query ParentReader contracts.
type Repo struct {
	store     store
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a chunk repository.
func New(s store, vectorDim int) *Repo {
	return &Repo{store: s, vectorDim: vectorDim}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the child vector index if it does not exist yet.
// Called once at startup; concurrent workers racing on FT.CREATE are safe
// because "index already exists" is not an error here.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, ChildIndexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", ChildIndexName, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:        ChildIndexName,
		StorageType: db.StorageHash,
		Prefixes:    []string{childKeyPrefix},
		Fields: []db.IndexField{
			{Name: fieldTenant, Type: db.IndexFieldTag},
			{
				Name:              fieldVector,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", ChildIndexName, err)
	}
	return nil
}

// PutUnit writes every parent and child record of one processing unit in a
// single transaction. Record keys are deterministic ids, so re-delivery of
// the same job overwrites in place instead of duplicating.
func (r *Repo) PutUnit(ctx context.Context, unit domain.IndexUnit) error {
	if unit.Empty() {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(unit.Parents)+len(unit.Children))
	for i := range unit.Parents {
		items = append(items, db.HashSetItem{
			Key:    parentKey(unit.Parents[i].ID),
			Fields: buildParentFields(&unit.Parents[i]),
		})
	}
	for i := range unit.Children {
		items = append(items, db.HashSetItem{
			Key:    childKey(unit.Children[i].ID),
			Fields: buildChildFields(&unit.Children[i]),
		})
	}

	if err := r.store.TxHSetMulti(ctx, items); err != nil {
		return fmt.Errorf("put unit (%d parents, %d children): %w",
			len(unit.Parents), len(unit.Children), err)
	}
	return nil
}

// GetParents resolves parent ids to full records, preserving the requested
// order. Ids with no stored record are returned in missing instead of failing
// the read: a dangling child reference is a data inconsistency, not a fatal
// condition for the query.
func (r *Repo) GetParents(ctx context.Context, ids []string) ([]domain.Parent, []string, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = parentKey(id)
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("get parents: %w", err)
	}

	parents := make([]domain.Parent, 0, len(ids))
	var missing []string
	for i, m := range maps {
		if len(m) == 0 {
			missing = append(missing, ids[i])
			continue
		}
		parents = append(parents, parseParentFields(ids[i], m))
	}

	return parents, missing, nil
}
