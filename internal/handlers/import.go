// internal/handlers/import.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/greencycle-be/internal/core/ports"
	"github.com/ammerola/greencycle-be/internal/workers"
)

// TaskInspector is the subset of *asynq.Inspector used for job status
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// ImportHandler queues catalog imports and refreshes for the worker
type ImportHandler struct {
	tasks       ports.TaskEnqueuer
	inspector   TaskInspector
	logger      *slog.Logger
	maxFileSize int64
	uploadDir   string
}

// NewImportHandler creates a new import handler. inspector may be nil, in
// which case status lookups answer 501.
func NewImportHandler(tasks ports.TaskEnqueuer, inspector TaskInspector, logger *slog.Logger, maxFileSize int64, uploadDir string) *ImportHandler {
	return &ImportHandler{
		tasks:       tasks,
		inspector:   inspector,
		logger:      logger.With(slog.String("handler", "import")),
		maxFileSize: maxFileSize,
		uploadDir:   uploadDir,
	}
}

var importExtensions = map[string]bool{".xlsx": true, ".yaml": true, ".yml": true}

// Import handles POST /api/v1/catalog/import
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !importExtensions[strings.ToLower(filepath.Ext(filename))] {
		respondError(w, h.logger, http.StatusBadRequest, "Only .xlsx, .yaml and .yml files are allowed")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.ErrorContext(ctx, "failed to create upload directory", slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to prepare upload")
		return
	}

	jobID := uuid.New().String()
	tempFile := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", jobID, filename))
	if err := saveUpload(tempFile, file); err != nil {
		h.logger.ErrorContext(ctx, "failed to save upload", slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	task, err := workers.NewImportTask(workers.ImportPayload{
		JobID:       jobID,
		FilePath:    tempFile,
		Filename:    filename,
		RemoveAfter: true,
	})
	if err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to create import task", slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	info, err := h.tasks.EnqueueContext(ctx, task)
	if err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to enqueue import task", slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "catalog import queued",
		slog.String("job_id", jobID),
		slog.String("task_id", info.ID),
		slog.String("filename", filename))

	respondJSON(w, h.logger, http.StatusAccepted, map[string]any{
		"job_id":  jobID,
		"task_id": info.ID,
		"queue":   info.Queue,
		"status":  "queued",
		"message": "Catalog import has been queued for processing",
	})
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}
	return dst.Close()
}

// ImportStatus handles GET /api/v1/catalog/import/{taskId}
func (h *ImportHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskID := r.PathValue("taskId")

	if h.inspector == nil {
		respondError(w, h.logger, http.StatusNotImplemented, "Job status is not available")
		return
	}

	info, err := h.inspector.GetTaskInfo(workers.QueueDefault, taskID)
	switch {
	case errors.Is(err, asynq.ErrTaskNotFound), errors.Is(err, asynq.ErrQueueNotFound):
		respondError(w, h.logger, http.StatusNotFound, "Job not found")
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to get job status",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to get job status")
		return
	}

	status := map[string]any{
		"task_id": info.ID,
		"type":    info.Type,
		"state":   info.State.String(),
		"retried": info.Retried,
	}
	if info.LastErr != "" {
		status["last_error"] = info.LastErr
	}
	if len(info.Result) > 0 {
		var result workers.ImportResult
		if err := json.Unmarshal(info.Result, &result); err == nil {
			status["result"] = result
		}
	}
	if !info.CompletedAt.IsZero() {
		status["completed_at"] = info.CompletedAt
	}

	respondJSON(w, h.logger, http.StatusOK, status)
}

// Refresh handles POST /api/v1/catalog/refresh. A refresh already waiting
// in the queue is reported, not duplicated.
func (h *ImportHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	info, err := h.tasks.EnqueueContext(ctx, workers.NewRefreshTask())
	if errors.Is(err, asynq.ErrDuplicateTask) {
		respondJSON(w, h.logger, http.StatusAccepted, map[string]any{
			"status":  "already_queued",
			"message": "A catalog refresh is already pending",
		})
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue refresh", slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to queue catalog refresh")
		return
	}

	h.logger.InfoContext(ctx, "catalog refresh queued", slog.String("task_id", info.ID))

	respondJSON(w, h.logger, http.StatusAccepted, map[string]any{
		"task_id": info.ID,
		"status":  "queued",
	})
}
