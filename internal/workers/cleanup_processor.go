// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
)

// CleanupProcessor removes stale import uploads
type CleanupProcessor struct {
	tempDir string
	maxAge  time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(tempDir string, maxAge time.Duration, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		tempDir: tempDir,
		maxAge:  maxAge,
		now:     time.Now,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupTempFiles handles cleanup:temp. A missing directory is not an error.
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, t *asynq.Task) error {
	deleted, err := p.Sweep(ctx)
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "temp files cleaned up",
		slog.String("dir", p.tempDir),
		slog.Int("files_deleted", deleted))
	return nil
}

// Sweep deletes regular files older than maxAge and returns how many went
func (p *CleanupProcessor) Sweep(ctx context.Context) (int, error) {
	cutoff := p.now().Add(-p.maxAge)

	var deleted int
	err := filepath.WalkDir(p.tempDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == p.tempDir {
				return filepath.SkipAll
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			p.logger.WarnContext(ctx, "failed to delete temp file",
				slog.String("file", path),
				slog.String("error", err.Error()))
			return nil
		}
		deleted++
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("failed to walk temp directory: %w", err)
	}
	return deleted, nil
}
