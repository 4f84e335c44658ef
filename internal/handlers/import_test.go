// internal/handlers/import_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/greencycle-be/internal/handlers"
	"github.com/ammerola/greencycle-be/internal/workers"
	"github.com/ammerola/greencycle-be/test/helpers"
	"github.com/ammerola/greencycle-be/test/mocks"
)

type fakeInspector struct {
	info *asynq.TaskInfo
	err  error
}

func (f fakeInspector) GetTaskInfo(queue, id string) (*asynq.TaskInfo, error) {
	return f.info, f.err
}

func importUpload(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestImportHandler_Import(t *testing.T) {
	seed := []byte("items:\n  - title: 그림책 세트\n    category: books\n    price: 8000\n")

	tests := []struct {
		name       string
		filename   string
		enqueueErr error
		callsQueue bool
		wantStatus int
		wantFiles  int
	}{
		{name: "yaml_queued", filename: "seed.yaml", callsQueue: true, wantStatus: http.StatusAccepted, wantFiles: 1},
		{name: "xlsx_queued", filename: "catalog.XLSX", callsQueue: true, wantStatus: http.StatusAccepted, wantFiles: 1},
		{name: "csv_rejected", filename: "catalog.csv", wantStatus: http.StatusBadRequest},
		{name: "path_in_filename_stripped", filename: "../../etc/seed.yml", callsQueue: true, wantStatus: http.StatusAccepted, wantFiles: 1},
		{name: "enqueue_failure_removes_upload", filename: "seed.yml", callsQueue: true, enqueueErr: errors.New("redis down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tasks := mocks.NewMockTaskEnqueuer(ctrl)
			dir := t.TempDir()
			h := handlers.NewImportHandler(tasks, nil, helpers.TestLogger(), 1<<20, dir)

			if tt.callsQueue {
				tasks.EXPECT().
					EnqueueContext(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
						assert.Equal(t, workers.TypeCatalogImport, task.Type())

						var payload workers.ImportPayload
						require.NoError(t, json.Unmarshal(task.Payload(), &payload))
						assert.True(t, payload.RemoveAfter)
						assert.Equal(t, dir, filepath.Dir(payload.FilePath))
						assert.Equal(t, filepath.Base(tt.filename), payload.Filename)

						data, err := os.ReadFile(payload.FilePath)
						require.NoError(t, err)
						assert.Equal(t, seed, data)

						if tt.enqueueErr != nil {
							return nil, tt.enqueueErr
						}
						return &asynq.TaskInfo{ID: "task-1", Queue: workers.QueueDefault}, nil
					})
			}

			body, ct := importUpload(t, tt.filename, seed)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			h.Import(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, tt.wantFiles)

			if tt.wantStatus == http.StatusAccepted {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "task-1", resp["task_id"])
				assert.Equal(t, "queued", resp["status"])
				assert.NotEmpty(t, resp["job_id"])
			}
		})
	}
}

func TestImportHandler_Import_NoFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := handlers.NewImportHandler(mocks.NewMockTaskEnqueuer(ctrl), nil, helpers.TestLogger(), 1<<20, t.TempDir())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.Import(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "File is required")
}

func TestImportHandler_ImportStatus(t *testing.T) {
	result, err := json.Marshal(workers.ImportResult{ItemsImported: 42, ProcessingTime: "1.2s"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		inspector  handlers.TaskInspector
		wantStatus int
		check      func(t *testing.T, resp map[string]any)
	}{
		{
			name: "completed",
			inspector: fakeInspector{info: &asynq.TaskInfo{
				ID:          "task-1",
				Type:        workers.TypeCatalogImport,
				State:       asynq.TaskStateCompleted,
				Result:      result,
				CompletedAt: time.Now(),
			}},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp map[string]any) {
				assert.Equal(t, "completed", resp["state"])
				res, ok := resp["result"].(map[string]any)
				require.True(t, ok)
				assert.EqualValues(t, 42, res["items_imported"])
			},
		},
		{
			name: "failed_attempt",
			inspector: fakeInspector{info: &asynq.TaskInfo{
				ID:      "task-1",
				State:   asynq.TaskStateRetry,
				Retried: 1,
				LastErr: "insert failed",
			}},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, resp map[string]any) {
				assert.Equal(t, "retry", resp["state"])
				assert.Equal(t, "insert failed", resp["last_error"])
			},
		},
		{
			name:       "unknown_task",
			inspector:  fakeInspector{err: asynq.ErrTaskNotFound},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "inspector_error",
			inspector:  fakeInspector{err: errors.New("redis down")},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "no_inspector",
			wantStatus: http.StatusNotImplemented,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			h := handlers.NewImportHandler(mocks.NewMockTaskEnqueuer(ctrl), tt.inspector, helpers.TestLogger(), 1<<20, t.TempDir())

			mux := http.NewServeMux()
			mux.HandleFunc("GET /api/v1/catalog/import/{taskId}", h.ImportStatus)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/import/task-1", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.check != nil {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				tt.check(t, resp)
			}
		})
	}
}

func TestImportHandler_Refresh(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantState  string
	}{
		{name: "queued", wantStatus: http.StatusAccepted, wantState: "queued"},
		{name: "duplicate", err: asynq.ErrDuplicateTask, wantStatus: http.StatusAccepted, wantState: "already_queued"},
		{name: "failure", err: errors.New("redis down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tasks := mocks.NewMockTaskEnqueuer(ctrl)
			h := handlers.NewImportHandler(tasks, nil, helpers.TestLogger(), 1<<20, t.TempDir())

			tasks.EXPECT().
				EnqueueContext(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
					assert.Equal(t, workers.TypeCatalogRefresh, task.Type())
					if tt.err != nil {
						return nil, tt.err
					}
					return &asynq.TaskInfo{ID: "refresh-1"}, nil
				})

			w := httptest.NewRecorder()
			h.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/v1/catalog/refresh", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantState != "" {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantState, resp["status"])
			}
		})
	}
}
