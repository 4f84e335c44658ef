// internal/handlers/cart.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/greencycle-be/internal/core/ports"
	"github.com/ammerola/greencycle-be/internal/handlers/middleware"
	"github.com/ammerola/greencycle-be/internal/pkg/logger"
)

// AddCartItemRequest is the body of POST /api/v1/cart/items
type AddCartItemRequest struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// CouponRequest is the body of POST /api/v1/cart/coupon
type CouponRequest struct {
	Code string `json:"code"`
}

// CartHandler serves the session cart
type CartHandler struct {
	service ports.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service ports.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "cart")),
	}
}

// sessionID prefers the value the session middleware resolved
func sessionID(r *http.Request) string {
	if id := logger.SessionID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get(middleware.DefaultSessionHeader)
}

// Get handles GET /api/v1/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), sessionID(r))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to load cart")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, view)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := decodeJSON(r, &req); err != nil || req.ItemID == uuid.Nil {
		respondError(w, h.logger, http.StatusBadRequest, "item_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.service.AddItem(r.Context(), sessionID(r), req.ItemID, req.Quantity)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to add item to cart")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, h.logger, http.StatusBadRequest, "Invalid item ID")
		return
	}

	view, err := h.service.RemoveItem(r.Context(), sessionID(r), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to remove item from cart")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, view)
}

// ApplyCoupon handles POST /api/v1/cart/coupon
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req CouponRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		respondError(w, h.logger, http.StatusBadRequest, "code is required")
		return
	}

	view, err := h.service.ApplyCoupon(r.Context(), sessionID(r), req.Code)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to apply coupon")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, view)
}

// Clear handles DELETE /api/v1/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), sessionID(r)); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
