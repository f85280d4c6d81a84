// Package ingest turns one document page into an atomically persisted set of
// parent and child chunk records.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/chunk"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// Service processes ingestion jobs end to end: fetch, extract, split,
// embed, persist. Jobs are idempotent; re-processing a page overwrites
// the same records.
type Service struct {
	blobs    BlobFetcher
	pages    PageExtractor
	embedder BatchEmbedder
	writer   UnitWriter
	splitter *chunk.Splitter
	logger   *zap.Logger
}

// New creates an ingestion service.
func New(
	blobs BlobFetcher,
	pages PageExtractor,
	embedder BatchEmbedder,
	writer UnitWriter,
	splitter *chunk.Splitter,
	logger *zap.Logger,
) *Service {
	return &Service{
		blobs:    blobs,
		pages:    pages,
		embedder: embedder,
		writer:   writer,
		splitter: splitter,
		logger:   logger,
	}
}

// Process handles one page-level ingestion job. An empty page is a successful
// no-op. Any failure leaves the index untouched; nothing is persisted until
// every child of the page has its vector.
func (s *Service) Process(ctx context.Context, job domain.IngestionJob) error {
	if err := validateJob(job); err != nil {
		metrics.IngestJobsTotal.WithLabelValues("error").Inc()
		return err
	}

	start := time.Now()

	content, err := s.blobs.Fetch(ctx, job.Bucket, job.FilePath)
	if err != nil {
		metrics.IngestJobsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch %s/%s: %w", job.Bucket, job.FilePath, err)
	}

	text, err := s.pages.PageText(content, job.Page)
	if err != nil {
		metrics.IngestJobsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("extract page %d of %s: %w", job.Page, job.FilePath, err)
	}

	unit, err := s.buildUnit(ctx, job, text)
	if err != nil {
		metrics.IngestJobsTotal.WithLabelValues("error").Inc()
		return err
	}

	if unit.Empty() {
		metrics.IngestJobsTotal.WithLabelValues("empty").Inc()
		s.logger.Info("Page has no extractable text, skipping",
			zap.String("file", job.FilePath),
			zap.Int("page", job.Page),
			zap.String("tenant", job.TenantID),
		)
		return nil
	}

	if err := s.writer.PutUnit(ctx, unit); err != nil {
		metrics.IngestJobsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("persist unit for page %d of %s: %w", job.Page, job.FilePath, err)
	}

	metrics.IngestJobsTotal.WithLabelValues("ok").Inc()
	metrics.IngestChunksTotal.WithLabelValues("parent").Add(float64(len(unit.Parents)))
	metrics.IngestChunksTotal.WithLabelValues("child").Add(float64(len(unit.Children)))
	metrics.IngestJobDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("Page indexed",
		zap.String("file", job.FilePath),
		zap.Int("page", job.Page),
		zap.String("tenant", job.TenantID),
		zap.Int("parents", len(unit.Parents)),
		zap.Int("children", len(unit.Children)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// buildUnit splits the page text and embeds every child, one batch call per
// parent. IDs derive from (source, page, index) so the unit is stable across
// re-deliveries of the same job.
func (s *Service) buildUnit(
	ctx context.Context, job domain.IngestionJob, text string,
) (domain.IndexUnit, error) {
	var unit domain.IndexUnit

	for _, p := range s.splitter.Split(text) {
		parentKey := chunk.ParentKey(job.FilePath, job.Page, p.Index)
		parentID := chunk.ID(parentKey)

		unit.Parents = append(unit.Parents, domain.Parent{
			ID:       parentID,
			TenantID: job.TenantID,
			Source:   job.FilePath,
			Page:     job.Page,
			Content:  p.Text,
		})

		texts := make([]string, len(p.Children))
		for i, c := range p.Children {
			texts[i] = c.Text
		}

		res, err := s.embedder.BatchEmbed(ctx, texts)
		if err != nil {
			return domain.IndexUnit{}, fmt.Errorf("embed children of parent %d: %w", p.Index, err)
		}
		if len(res.Embeddings) != len(texts) {
			return domain.IndexUnit{}, fmt.Errorf(
				"embed children of parent %d: got %d vectors for %d texts: %w",
				p.Index, len(res.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
		}

		for i, c := range p.Children {
			unit.Children = append(unit.Children, domain.Child{
				ID:       chunk.ID(chunk.ChildKey(parentKey, c.Index)),
				TenantID: job.TenantID,
				ParentID: parentID,
				Content:  c.Text,
				Vector:   res.Embeddings[i],
			})
		}
	}

	return unit, nil
}

func validateJob(job domain.IngestionJob) error {
	switch {
	case strings.TrimSpace(job.Bucket) == "":
		return fmt.Errorf("bucket is required: %w", domain.ErrInvalidJob)
	case strings.TrimSpace(job.FilePath) == "":
		return fmt.Errorf("file_path is required: %w", domain.ErrInvalidJob)
	case job.Page < 0:
		return fmt.Errorf("page_num must be non-negative, got %d: %w", job.Page, domain.ErrInvalidJob)
	case strings.TrimSpace(job.TenantID) == "":
		return fmt.Errorf("client_id is required: %w", domain.ErrInvalidJob)
	}
	return nil
}
