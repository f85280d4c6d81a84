package ingest

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

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
	return "", nil
}

type mockBatchEmbedder struct {
	batchEmbedFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
	calls        int
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
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
	lastUnit  domain.IndexUnit
}

func (m *mockUnitWriter) PutUnit(ctx context.Context, unit domain.IndexUnit) error {
	m.calls++
	m.lastUnit = unit
	if m.putUnitFn != nil {
		return m.putUnitFn(ctx, unit)
	}
	return nil
}
