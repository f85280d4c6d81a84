package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// FSFetcher reads documents from a local directory tree.
// Layout mirrors object storage: <root>/<bucket>/<path>.
// Intended for local development and tests.
type FSFetcher struct {
	root string
}

// NewFSFetcher creates a filesystem-backed fetcher rooted at dir.
func NewFSFetcher(dir string) *FSFetcher {
	return &FSFetcher{root: dir}
}

// Fetch reads the file at <root>/<bucket>/<path>.
func (f *FSFetcher) Fetch(_ context.Context, bucket, path string) ([]byte, error) {
	full := filepath.Join(f.root, bucket, filepath.FromSlash(path))

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s/%s: %w", bucket, path, domain.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", full, err)
	}
	return data, nil
}
