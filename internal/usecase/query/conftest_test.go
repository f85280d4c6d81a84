package query

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

type mockSearch struct {
	nearestFn func(ctx context.Context, tenantID string, vector []float32, k int) ([]domain.ChildHit, error)
}

func (m *mockSearch) NearestChildren(
	ctx context.Context, tenantID string, vector []float32, k int,
) ([]domain.ChildHit, error) {
	if m.nearestFn != nil {
		return m.nearestFn(ctx, tenantID, vector, k)
	}
	return nil, nil
}

type mockParents struct {
	getParentsFn func(ctx context.Context, ids []string) ([]domain.Parent, []string, error)
}

func (m *mockParents) GetParents(ctx context.Context, ids []string) ([]domain.Parent, []string, error) {
	if m.getParentsFn != nil {
		return m.getParentsFn(ctx, ids)
	}
	return nil, nil, nil
}

type mockHistory struct {
	turnsFn  func(ctx context.Context, sessionID string) ([]domain.Turn, error)
	appendFn func(ctx context.Context, sessionID string, turns []domain.Turn) error
	appended [][]domain.Turn
}

func (m *mockHistory) Turns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if m.turnsFn != nil {
		return m.turnsFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockHistory) Append(ctx context.Context, sessionID string, turns []domain.Turn) error {
	m.appended = append(m.appended, turns)
	if m.appendFn != nil {
		return m.appendFn(ctx, sessionID, turns)
	}
	return nil
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

type mockCompleter struct {
	completeFn func(ctx context.Context, p domain.Prompt) (domain.CompletionResult, error)
	lastPrompt domain.Prompt
}

func (m *mockCompleter) Complete(ctx context.Context, p domain.Prompt) (domain.CompletionResult, error) {
	m.lastPrompt = p
	if m.completeFn != nil {
		return m.completeFn(ctx, p)
	}
	return domain.CompletionResult{Text: "generated answer"}, nil
}
