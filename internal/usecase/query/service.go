// Package query answers natural-language questions over a tenant's indexed
// documents, with per-session conversational memory.
package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

const (
	// DefaultTopK is how many child chunks nearest-neighbor search returns.
	DefaultTopK = 7
	// DefaultHistoryTurns is how many prior turns feed the prompt.
	DefaultHistoryTurns = 4
)

// Service orchestrates one query: history, retrieval, synthesis, memory write.
type Service struct {
	search       SearchRepository
	parents      ParentReader
	history      HistoryStore
	embedder     Embedder
	completer    domain.Completer
	topK         int
	historyTurns int
	logger       *zap.Logger
}

// New creates a query service with default retrieval parameters.
func New(
	search SearchRepository,
	parents ParentReader,
	history HistoryStore,
	embedder Embedder,
	completer domain.Completer,
	logger *zap.Logger,
) *Service {
	return &Service{
		search:       search,
		parents:      parents,
		history:      history,
		embedder:     embedder,
		completer:    completer,
		topK:         DefaultTopK,
		historyTurns: DefaultHistoryTurns,
		logger:       logger,
	}
}

// WithRetrieval overrides top-k and the history window.
func (s *Service) WithRetrieval(topK, historyTurns int) *Service {
	if topK > 0 {
		s.topK = topK
	}
	if historyTurns > 0 {
		s.historyTurns = historyTurns
	}
	return s
}

// Answer runs the full query flow. History and retrieval failures abort the
// request; so does a failed memory write, since losing a turn would corrupt
// the session's conversation state.
func (s *Service) Answer(ctx context.Context, q domain.Query) (domain.Answer, error) {
	if err := validateQuery(q); err != nil {
		return domain.Answer{}, err
	}

	turns, err := s.history.Turns(ctx, q.SessionID)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("load history for session %s: %w", q.SessionID, err)
	}
	window := lastTurns(turns, s.historyTurns)

	emb, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("embed query: %w", err)
	}

	contextText, err := s.retrieveContext(ctx, q.TenantID, emb.Embedding)
	if err != nil {
		return domain.Answer{}, err
	}

	result, err := s.completer.Complete(ctx, domain.Prompt{
		History:  renderHistory(window),
		Context:  contextText,
		Question: q.Text,
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("complete: %w", err)
	}

	newTurns := []domain.Turn{
		{Role: domain.RoleUser, Content: q.Text},
		{Role: domain.RoleAssistant, Content: result.Text},
	}
	if err := s.history.Append(ctx, q.SessionID, newTurns); err != nil {
		return domain.Answer{}, fmt.Errorf("save history for session %s: %w", q.SessionID, err)
	}

	return domain.Answer{Text: result.Text, ContextUsed: contextText}, nil
}

// retrieveContext searches children, collapses them to distinct parents in
// first-reference order, and renders the attributed context block.
func (s *Service) retrieveContext(ctx context.Context, tenantID string, vector []float32) (string, error) {
	hits, err := s.search.NearestChildren(ctx, tenantID, vector, s.topK)
	if err != nil {
		return "", fmt.Errorf("search children: %w", err)
	}
	if len(hits) == 0 {
		return noContextSentinel, nil
	}

	ids := distinctParentIDs(hits)
	parents, missing, err := s.parents.GetParents(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("load parents: %w", err)
	}
	if len(missing) > 0 {
		// A child pointing at an absent parent means a torn index unit.
		s.logger.Error("Index inconsistency: children reference missing parents",
			zap.String("tenant", tenantID),
			zap.Strings("missing_parent_ids", missing),
		)
	}

	return renderContext(parents), nil
}

// distinctParentIDs deduplicates parent ids, keeping the order in which
// search first referenced each parent.
func distinctParentIDs(hits []domain.ChildHit) []string {
	seen := make(map[string]struct{}, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.ParentID]; ok {
			continue
		}
		seen[h.ParentID] = struct{}{}
		ids = append(ids, h.ParentID)
	}
	return ids
}

// lastTurns returns the most recent n turns in chronological order.
func lastTurns(turns []domain.Turn, n int) []domain.Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

func validateQuery(q domain.Query) error {
	switch {
	case strings.TrimSpace(q.Text) == "":
		return fmt.Errorf("query is required: %w", domain.ErrInvalidQuery)
	case strings.TrimSpace(q.TenantID) == "":
		return fmt.Errorf("client_id is required: %w", domain.ErrInvalidQuery)
	case strings.TrimSpace(q.SessionID) == "":
		return fmt.Errorf("session_id is required: %w", domain.ErrInvalidQuery)
	}
	return nil
}
