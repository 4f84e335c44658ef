// internal/handlers/item_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/handlers"
	"github.com/ammerola/greencycle-be/test/helpers"
	"github.com/ammerola/greencycle-be/test/mocks"
)

func itemRouter(h *handlers.ItemHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/items", h.Create)
	mux.HandleFunc("GET /api/v1/items/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1/items/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1/items/{id}", h.Delete)
	mux.HandleFunc("POST /api/v1/items/{id}/like", h.Like)
	mux.HandleFunc("POST /api/v1/items/{id}/images", h.UploadImage)
	return mux
}

func TestItemHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		callsSvc   bool
		wantStatus int
		wantBody   string
	}{
		{
			name:       "created",
			body:       `{"title":"원목 책상","category":"furniture","price":30000,"distance_km":0.8}`,
			callsSvc:   true,
			wantStatus: http.StatusCreated,
			wantBody:   "원목 책상",
		},
		{
			name:       "malformed_json",
			body:       `{"title":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid request body",
		},
		{
			name:       "unknown_field",
			body:       `{"title":"x","colour":"red"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "validation_error",
			body:       `{"title":"","price":100}`,
			callsSvc:   true,
			serviceErr: fmt.Errorf("%w: title is required", domain.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantBody:   "title is required",
		},
		{
			name:       "storage_failure",
			body:       `{"title":"x"}`,
			callsSvc:   true,
			serviceErr: errors.New("pool exhausted"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to create item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := mocks.NewMockItemService(ctrl)
			h := handlers.NewItemHandler(service, helpers.TestLogger())

			if tt.callsSvc {
				service.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item *domain.Item) error {
						if tt.serviceErr != nil {
							return tt.serviceErr
						}
						item.ID = uuid.New()
						return nil
					})
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/items", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			itemRouter(h).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			if tt.wantStatus == http.StatusCreated {
				assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/api/v1/items/"))
			}
		})
	}
}

func TestItemHandler_Get(t *testing.T) {
	item := helpers.CreateTestItem()

	tests := []struct {
		name       string
		path       string
		setup      func(s *mocks.MockItemService)
		wantStatus int
	}{
		{
			name: "found",
			path: "/api/v1/items/" + item.ID.String(),
			setup: func(s *mocks.MockItemService) {
				s.EXPECT().Get(gomock.Any(), item.ID).Return(item, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not_found",
			path: "/api/v1/items/" + item.ID.String(),
			setup: func(s *mocks.MockItemService) {
				s.EXPECT().Get(gomock.Any(), item.ID).Return(nil, fmt.Errorf("find: %w", domain.ErrNotFound))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "bad_id",
			path:       "/api/v1/items/not-a-uuid",
			setup:      func(*mocks.MockItemService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := mocks.NewMockItemService(ctrl)
			tt.setup(service)
			h := handlers.NewItemHandler(service, helpers.TestLogger())

			w := httptest.NewRecorder()
			itemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestItemHandler_Get_RendersCard(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockItemService(ctrl)
	h := handlers.NewItemHandler(service, helpers.TestLogger())

	item := helpers.CreateTestItem()
	service.EXPECT().Get(gomock.Any(), item.ID).Return(item, nil)

	w := httptest.NewRecorder()
	itemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items/"+item.ID.String(), nil))

	require.Equal(t, http.StatusOK, w.Code)
	var view handlers.ItemView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, item.ID, view.ID)
	assert.Equal(t, item.Title, view.Title)
	assert.Equal(t, 29, view.DiscountPercent) // 85000 of 120000
	assert.Equal(t, "방금 전", view.TimeAgo)
}

func TestItemHandler_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockItemService(ctrl)
	h := handlers.NewItemHandler(service, helpers.TestLogger())

	id := uuid.New()
	service.EXPECT().
		Update(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, item *domain.Item) error {
			assert.Equal(t, "가격 내림", item.Title)
			assert.Equal(t, domain.StatusReserved, item.Status)
			item.ID = id
			return nil
		})

	body := `{"title":"가격 내림","price":70000,"status":"reserved"}`
	w := httptest.NewRecorder()
	itemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/items/"+id.String(), strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.String())
}

func TestItemHandler_Delete(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		permanent bool
	}{
		{name: "soft", query: "", permanent: false},
		{name: "permanent", query: "?permanent=true", permanent: true},
		{name: "garbage_flag_is_soft", query: "?permanent=maybe", permanent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := mocks.NewMockItemService(ctrl)
			h := handlers.NewItemHandler(service, helpers.TestLogger())

			id := uuid.New()
			service.EXPECT().Delete(gomock.Any(), id, tt.permanent).Return(nil)

			w := httptest.NewRecorder()
			itemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/items/"+id.String()+tt.query, nil))

			assert.Equal(t, http.StatusNoContent, w.Code)
			assert.Zero(t, w.Body.Len())
		})
	}
}

func TestItemHandler_Like(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockItemService(ctrl)
	h := handlers.NewItemHandler(service, helpers.TestLogger())

	id := uuid.New()
	service.EXPECT().Like(gomock.Any(), id).Return(int64(8), nil)

	w := httptest.NewRecorder()
	itemRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/items/"+id.String()+"/like", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 8, resp["likes"])
}

func imageUpload(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestItemHandler_UploadImage(t *testing.T) {
	id := uuid.New()
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	tests := []struct {
		name        string
		field       string
		contentType string
		setup       func(s *mocks.MockItemService)
		wantStatus  int
	}{
		{
			name:        "uploaded",
			field:       "image",
			contentType: "image/jpeg",
			setup: func(s *mocks.MockItemService) {
				s.EXPECT().
					AttachImage(gomock.Any(), id, "desk.jpg", "image/jpeg", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ uuid.UUID, _, _ string, body io.Reader) (string, error) {
						data, err := io.ReadAll(body)
						require.NoError(t, err)
						assert.Equal(t, jpeg, data)
						return "https://images.greencycle.kr/items/desk.jpg", nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:        "wrong_field",
			field:       "file",
			contentType: "image/jpeg",
			setup:       func(*mocks.MockItemService) {},
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "not_an_image",
			field:       "image",
			contentType: "application/pdf",
			setup: func(s *mocks.MockItemService) {
				s.EXPECT().
					AttachImage(gomock.Any(), id, "desk.jpg", "application/pdf", gomock.Any()).
					Return("", fmt.Errorf("%w: unsupported content type", domain.ErrValidation))
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			service := mocks.NewMockItemService(ctrl)
			tt.setup(service)
			h := handlers.NewItemHandler(service, helpers.TestLogger())

			body, ct := imageUpload(t, tt.field, "desk.jpg", tt.contentType, jpeg)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+id.String()+"/images", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			itemRouter(h).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
