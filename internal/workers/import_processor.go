// internal/workers/import_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/greencycle-be/internal/adapters/catalog"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// ImportProcessor loads spreadsheet or YAML catalogs into the item store
type ImportProcessor struct {
	items  ports.ItemService
	logger *slog.Logger
}

// NewImportProcessor creates a new import processor
func NewImportProcessor(items ports.ItemService, logger *slog.Logger) *ImportProcessor {
	return &ImportProcessor{
		items:  items,
		logger: logger.With(slog.String("processor", "import")),
	}
}

// ProcessImport handles catalog:import. Files that cannot be parsed are not
// retried; storage failures are.
func (p *ImportProcessor) ProcessImport(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	var payload ImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	log := p.logger.With(
		slog.String("job_id", payload.JobID),
		slog.String("file_path", payload.FilePath))
	log.InfoContext(ctx, "processing catalog import")

	items, err := catalog.LoadSeedFile(payload.FilePath)
	if err != nil {
		p.writeResult(ctx, t, ImportResult{Error: err.Error(), ProcessingTime: time.Since(start).String()})
		var rowErr *catalog.RowError
		if errors.As(err, &rowErr) {
			log.WarnContext(ctx, "import rejected",
				slog.Int("row", rowErr.Row),
				slog.String("error", rowErr.Err.Error()))
		}
		return fmt.Errorf("failed to parse import file: %w: %w", err, asynq.SkipRetry)
	}

	if err := p.items.CreateBatch(ctx, items); err != nil {
		return fmt.Errorf("failed to save imported items: %w", err)
	}

	if payload.RemoveAfter {
		if err := os.Remove(payload.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WarnContext(ctx, "failed to remove import file", slog.String("error", err.Error()))
		}
	}

	result := ImportResult{ItemsImported: len(items), ProcessingTime: time.Since(start).String()}
	p.writeResult(ctx, t, result)

	log.InfoContext(ctx, "catalog import completed",
		slog.Int("items_imported", result.ItemsImported),
		slog.Duration("duration_ms", time.Since(start)))

	return nil
}

func (p *ImportProcessor) writeResult(ctx context.Context, t *asynq.Task, result ImportResult) {
	rw := t.ResultWriter()
	if rw == nil {
		return
	}
	b, err := json.Marshal(result)
	if err != nil {
		return
	}
	if _, err := rw.Write(b); err != nil {
		p.logger.WarnContext(ctx, "failed to write task result", slog.String("error", err.Error()))
	}
}
