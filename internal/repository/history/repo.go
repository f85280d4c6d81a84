// Package history persists conversation turns per session as a JSON document.
//
// A session lives at one key holding {"turns": [...]}. Appends only ever add
// to the array, so concurrent writers interleave instead of overwriting each
// other.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

const (
	sessionKeyPrefix = domain.KeyPrefix + "session:"

	rootPath  = "$"
	turnsPath = "$.turns"

	emptyDoc = `{"turns":[]}`
)

// store is the consumer interface for session documents (ISP),
// a subset of db.JSONStore.
type store interface {
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONSetNX(ctx context.Context, key, path string, data []byte) error
	JSONArrAppend(ctx context.Context, key, path string, items [][]byte) error
}

// Repo implements the query HistoryStore contract.
type Repo struct {
	store store
}

// New creates a history repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Turns returns all turns of the session in chronological order. A session
// that has never been written is not an error; it reads as empty history.
func (r *Repo) Turns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	raw, err := r.store.JSONGet(ctx, sessionKey(sessionID), turnsPath)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	// JSONPath responses arrive wrapped in one more array level.
	var matches [][]domain.Turn
	if err := json.Unmarshal(raw, &matches); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// Append adds turns to the end of the session document, creating the document
// first if the session is new. The create uses NX so a concurrent writer that
// got there first is left untouched.
func (r *Repo) Append(ctx context.Context, sessionID string, turns []domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	key := sessionKey(sessionID)
	if err := r.store.JSONSetNX(ctx, key, rootPath, []byte(emptyDoc)); err != nil {
		return fmt.Errorf("init session %s: %w", sessionID, err)
	}

	items := make([][]byte, 0, len(turns))
	for _, turn := range turns {
		b, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		items = append(items, b)
	}

	if err := r.store.JSONArrAppend(ctx, key, turnsPath, items); err != nil {
		return fmt.Errorf("append to session %s: %w", sessionID, err)
	}
	return nil
}
