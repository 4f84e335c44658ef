// internal/handlers/item.go
package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

// maxImageSize caps a single photo upload
const maxImageSize = 10 << 20

// ItemRequest is the body of item create and update calls
type ItemRequest struct {
	SellerID      string          `json:"seller_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      domain.Category `json:"category"`
	Kind          domain.Kind     `json:"kind"`
	Price         int64           `json:"price"`
	OriginalPrice *int64          `json:"original_price,omitempty"`
	Status        domain.Status   `json:"status"`
	DistanceKm    float64         `json:"distance_km"`
	Location      string          `json:"location"`
	Images        []string        `json:"images,omitempty"`
}

// ToDomain converts the request into an item; the service fills defaults
func (req ItemRequest) ToDomain() *domain.Item {
	return &domain.Item{
		SellerID:      req.SellerID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Kind:          req.Kind,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Status:        req.Status,
		DistanceKm:    req.DistanceKm,
		Location:      req.Location,
		Images:        req.Images,
	}
}

// ItemHandler handles single-item endpoints
type ItemHandler struct {
	service ports.ItemService
	now     func() time.Time
	logger  *slog.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(service ports.ItemService, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		service: service,
		now:     time.Now,
		logger:  logger.With(slog.String("handler", "item")),
	}
}

// Create handles POST /api/v1/items
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	item := req.ToDomain()
	if err := h.service.Create(r.Context(), item); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to create item")
		return
	}

	w.Header().Set("Location", "/api/v1/items/"+item.ID.String())
	respondJSON(w, h.logger, http.StatusCreated, newItemView(*item, h.now()))
}

// Get handles GET /api/v1/items/{id}
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to get item")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, newItemView(*item, h.now()))
}

// Update handles PUT /api/v1/items/{id}
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	item := req.ToDomain()
	if err := h.service.Update(r.Context(), id, item); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to update item")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, newItemView(*item, h.now()))
}

// Delete handles DELETE /api/v1/items/{id}. ?permanent=true removes the row
// instead of soft-deleting it.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID")
		return
	}

	permanent, _ := strconv.ParseBool(r.URL.Query().Get("permanent"))
	if err := h.service.Delete(r.Context(), id, permanent); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Like handles POST /api/v1/items/{id}/like
func (h *ItemHandler) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID")
		return
	}

	likes, err := h.service.Like(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to like item")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]any{
		"id":    id,
		"likes": likes,
	})
}

// UploadImage handles POST /api/v1/items/{id}/images with a multipart
// "image" field.
func (h *ItemHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "Image is required")
		return
	}
	defer file.Close()

	url, err := h.service.AttachImage(r.Context(), id,
		filepath.Base(header.Filename), header.Header.Get("Content-Type"), file)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to upload image")
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, map[string]string{"url": url})
}
