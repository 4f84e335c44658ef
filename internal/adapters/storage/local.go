// internal/adapters/storage/local.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// LocalImageStore writes images under a directory served at baseURL.
// It stands in for S3 in local development.
type LocalImageStore struct {
	basePath string
	baseURL  string
	logger   *slog.Logger
}

var _ ports.ImageStore = (*LocalImageStore)(nil)

// NewLocalImageStore creates a filesystem image store
func NewLocalImageStore(basePath, baseURL string, logger *slog.Logger) *LocalImageStore {
	return &LocalImageStore{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger.With(slog.String("storage", "local")),
	}
}

// Upload saves an image and returns its URL
func (l *LocalImageStore) Upload(ctx context.Context, key string, body io.Reader, _ string) (string, error) {
	path, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create image: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	l.logger.DebugContext(ctx, "image stored", slog.String("path", path))
	return l.baseURL + "/" + key, nil
}

// Delete removes an image; a missing file is not an error
func (l *LocalImageStore) Delete(_ context.Context, key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// Root is the directory images are written to
func (l *LocalImageStore) Root() string {
	return l.basePath
}

func (l *LocalImageStore) path(key string) (string, error) {
	if !fs.ValidPath(key) {
		return "", fmt.Errorf("invalid image key %q", key)
	}
	return filepath.Join(l.basePath, filepath.FromSlash(key)), nil
}
