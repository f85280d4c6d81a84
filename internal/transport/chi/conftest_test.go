package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/ragdex/internal/usecase/query"
)

// --- Ingest mocks ---

type mockBlobFetcher struct {
	fetchFn func(ctx context.Context, bucket, path string) ([]byte, error)
}

func (m *mockBlobFetcher) Fetch(ctx context.Context, bucket, path string) ([]byte, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, bucket, path)
	}
	return []byte("pdf"), nil
}

type mockPageExtractor struct {
	pageTextFn func(content []byte, page int) (string, error)
}

func (m *mockPageExtractor) PageText(content []byte, page int) (string, error) {
	if m.pageTextFn != nil {
		return m.pageTextFn(content, page)
	}
	return strings.Repeat("a", 150), nil
}

type mockBatchEmbedder struct {
	batchEmbedFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if m.batchEmbedFn != nil {
		return m.batchEmbedFn(ctx, texts)
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{0.1, 0.2}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}

type mockUnitWriter struct {
	putUnitFn func(ctx context.Context, unit domain.IndexUnit) error
	calls     int
}

func (m *mockUnitWriter) PutUnit(ctx context.Context, unit domain.IndexUnit) error {
	m.calls++
	if m.putUnitFn != nil {
		return m.putUnitFn(ctx, unit)
	}
	return nil
}

// --- Query mocks ---

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
}

func (m *mockHistory) Turns(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if m.turnsFn != nil {
		return m.turnsFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockHistory) Append(ctx context.Context, sessionID string, turns []domain.Turn) error {
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
}

func (m *mockCompleter) Complete(ctx context.Context, p domain.Prompt) (domain.CompletionResult, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, p)
	}
	return domain.CompletionResult{Text: "generated answer"}, nil
}

// --- Health mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

// --- Server setup ---

type serverMocks struct {
	blobs     *mockBlobFetcher
	pages     *mockPageExtractor
	batch     *mockBatchEmbedder
	writer    *mockUnitWriter
	search    *mockSearch
	parents   *mockParents
	history   *mockHistory
	embedder  *mockEmbedder
	completer *mockCompleter
	db        *mockDBPinger
}

func newServerMocks() *serverMocks {
	return &serverMocks{
		blobs:     &mockBlobFetcher{},
		pages:     &mockPageExtractor{},
		batch:     &mockBatchEmbedder{},
		writer:    &mockUnitWriter{},
		search:    &mockSearch{},
		parents:   &mockParents{},
		history:   &mockHistory{},
		embedder:  &mockEmbedder{},
		completer: &mockCompleter{},
		db:        &mockDBPinger{},
	}
}

func newTestHandler(m *serverMocks) http.Handler {
	splitter, err := chunk.NewSplitter(
		chunk.SplitConfig{Size: 100, Overlap: 10},
		chunk.SplitConfig{Size: 40, Overlap: 5},
	)
	if err != nil {
		panic(err)
	}

	logger := zap.NewNop()
	srv := NewServer(
		ingestuc.New(m.blobs, m.pages, m.batch, m.writer, splitter, logger),
		queryuc.New(m.search, m.parents, m.history, m.embedder, m.completer, logger),
		healthuc.New(m.db, nil, nil),
		logger,
	)

	r := chirouter.NewRouter()
	srv.Register(r)
	return r
}

func doJSON(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
