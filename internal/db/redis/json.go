package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ragdex/internal/db"
)

// JSONGet retrieves a JSON document by key and optional paths.
func (s *Store) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	args := make([]string, len(paths))
	copy(args, paths)

	cmd := s.b().Arbitrary("JSON.GET").Keys(key).Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpJSONGet, Err: err}
	}
	if raw == "" {
		return nil, db.ErrKeyNotFound
	}
	return []byte(raw), nil
}

// JSONSetNX stores a JSON document only if the key does not exist yet.
// Safe to repeat: a second call against an existing key is a no-op.
func (s *Store) JSONSetNX(ctx context.Context, key, path string, data []byte) error {
	cmd := s.b().Arbitrary("JSON.SET").Keys(key).Args(path, string(data), "NX").Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		// NX miss replies nil, which rueidis surfaces as an error.
		if rueidis.IsRedisNil(err) {
			return nil
		}
		return &db.Error{Op: db.OpJSONSet, Err: err}
	}
	return nil
}

// JSONArrAppend appends items to the array at path, in order, without
// rewriting the rest of the document.
func (s *Store) JSONArrAppend(ctx context.Context, key, path string, items [][]byte) error {
	if len(items) == 0 {
		return nil
	}

	args := make([]string, 0, len(items)+1)
	args = append(args, path)
	for _, item := range items {
		args = append(args, string(item))
	}

	cmd := s.b().Arbitrary("JSON.ARRAPPEND").Keys(key).Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpJSONArrApp, Err: fmt.Errorf("key %s: %w", key, err)}
	}
	return nil
}
