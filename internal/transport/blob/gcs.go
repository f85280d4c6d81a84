// Package blob fetches raw document bytes from object storage.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// GCSFetcher downloads objects from Google Cloud Storage.
type GCSFetcher struct {
	svc *storage.Service
}

// NewGCSFetcher creates a fetcher using application default credentials.
func NewGCSFetcher(ctx context.Context, opts ...option.ClientOption) (*GCSFetcher, error) {
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return &GCSFetcher{svc: svc}, nil
}

// Fetch downloads the object at bucket/path and returns its bytes.
func (f *GCSFetcher) Fetch(ctx context.Context, bucket, path string) ([]byte, error) {
	resp, err := f.svc.Objects.Get(bucket, path).Context(ctx).Download()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("gs://%s/%s: %w", bucket, path, domain.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("download gs://%s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, path, err)
	}
	return data, nil
}
