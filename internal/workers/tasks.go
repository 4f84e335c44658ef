// internal/workers/tasks.go
package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeCatalogImport  = "catalog:import"
	TypeCatalogRefresh = "catalog:refresh"
	TypeCleanupTemp    = "cleanup:temp"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// ImportPayload is the catalog:import job
type ImportPayload struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
	Filename string `json:"filename,omitempty"`
	// RemoveAfter deletes FilePath once the import succeeds.
	RemoveAfter bool `json:"remove_after"`
}

// ImportResult is written as the task result of catalog:import
type ImportResult struct {
	ItemsImported  int    `json:"items_imported"`
	Error          string `json:"error,omitempty"`
	ProcessingTime string `json:"processing_time"`
}

// NewImportTask builds a catalog:import task
func NewImportTask(payload ImportPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import payload: %w", err)
	}
	return asynq.NewTask(TypeCatalogImport, b,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

// NewRefreshTask builds a catalog:refresh task
func NewRefreshTask() *asynq.Task {
	return asynq.NewTask(TypeCatalogRefresh, nil,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(1),
		asynq.Unique(time.Minute),
	)
}

// NewCleanupTask builds a cleanup:temp task
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupTemp, nil, asynq.Queue(QueueLow), asynq.MaxRetry(0))
}
