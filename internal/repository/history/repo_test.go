package history

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/db"
	dbRedis "github.com/kailas-cloud/ragdex/internal/db/redis"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

// The real store must satisfy the consumer interface.
var _ store = (*dbRedis.Store)(nil)

type mockStore struct {
	jsonGetFn       func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonSetNXFn     func(ctx context.Context, key, path string, data []byte) error
	jsonArrAppendFn func(ctx context.Context, key, path string, items [][]byte) error
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) JSONSetNX(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetNXFn != nil {
		return m.jsonSetNXFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONArrAppend(ctx context.Context, key, path string, items [][]byte) error {
	if m.jsonArrAppendFn != nil {
		return m.jsonArrAppendFn(ctx, key, path, items)
	}
	return nil
}

func TestTurns_MissingSessionIsEmpty(t *testing.T) {
	repo := New(&mockStore{})

	turns, err := repo.Turns(context.Background(), "s-404")
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if turns != nil {
		t.Errorf("expected empty history, got %v", turns)
	}
}

func TestTurns_ChronologicalOrder(t *testing.T) {
	repo := New(&mockStore{
		jsonGetFn: func(_ context.Context, key string, paths ...string) ([]byte, error) {
			if key != sessionKeyPrefix+"s-1" {
				t.Errorf("key = %q", key)
			}
			if len(paths) != 1 || paths[0] != turnsPath {
				t.Errorf("paths = %v", paths)
			}
			return []byte(`[[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]]`), nil
		},
	})

	turns, err := repo.Turns(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("Turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != domain.RoleUser || turns[0].Content != "hi" {
		t.Errorf("turns[0] = %+v", turns[0])
	}
	if turns[1].Role != domain.RoleAssistant {
		t.Errorf("turns[1] = %+v", turns[1])
	}
}

func TestAppend_InitializesThenAppends(t *testing.T) {
	var initKey, initValue string
	var appended [][]byte
	repo := New(&mockStore{
		jsonSetNXFn: func(_ context.Context, key, path string, data []byte) error {
			initKey, initValue = key, string(data)
			if path != rootPath {
				t.Errorf("init path = %q", path)
			}
			return nil
		},
		jsonArrAppendFn: func(_ context.Context, _ string, path string, items [][]byte) error {
			if path != turnsPath {
				t.Errorf("append path = %q", path)
			}
			appended = items
			return nil
		},
	})

	turns := []domain.Turn{
		{Role: domain.RoleUser, Content: "question"},
		{Role: domain.RoleAssistant, Content: "answer"},
	}
	if err := repo.Append(context.Background(), "s-2", turns); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if initKey != sessionKeyPrefix+"s-2" || initValue != emptyDoc {
		t.Errorf("init = %q %q", initKey, initValue)
	}
	if len(appended) != 2 {
		t.Fatalf("expected 2 appended items, got %d", len(appended))
	}
	if string(appended[0]) != `{"role":"user","content":"question"}` {
		t.Errorf("appended[0] = %s", appended[0])
	}
}

func TestAppend_EmptyIsNoOp(t *testing.T) {
	repo := New(&mockStore{
		jsonSetNXFn: func(_ context.Context, _, _ string, _ []byte) error {
			t.Fatal("no write expected for empty turns")
			return nil
		},
	})

	if err := repo.Append(context.Background(), "s-3", nil); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestAppend_PropagatesFailure(t *testing.T) {
	boom := errors.New("arrappend failed")
	repo := New(&mockStore{
		jsonArrAppendFn: func(_ context.Context, _, _ string, _ [][]byte) error {
			return boom
		},
	})

	err := repo.Append(context.Background(), "s-4", []domain.Turn{{Role: domain.RoleUser, Content: "x"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped append error, got %v", err)
	}
}
