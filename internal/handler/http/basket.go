package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SashaVektor/apple-store-clone/internal/service"
	"github.com/SashaVektor/apple-store-clone/pkg/httputil"
	"github.com/SashaVektor/apple-store-clone/pkg/validator"
)

// BasketHandler handles HTTP requests for basket endpoints.
type BasketHandler struct {
	service *service.BasketService
	logger  *slog.Logger
}

func NewBasketHandler(svc *service.BasketService, logger *slog.Logger) *BasketHandler {
	return &BasketHandler{service: svc, logger: logger}
}

// GetBasket handles GET /api/v1/basket
func (h *BasketHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	basket, err := h.service.GetBasket(r.Context(), basketIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, service.NewBasketView(basket))
}

// AddItem handles POST /api/v1/basket/items
func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req service.AddItemInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	basket, err := h.service.AddItem(r.Context(), basketIDFromContext(r.Context()), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, service.NewBasketView(basket))
}

// RemoveItem handles DELETE /api/v1/basket/items/{productId}
func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	basket, err := h.service.RemoveItem(r.Context(), basketIDFromContext(r.Context()), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, service.NewBasketView(basket))
}

// ClearBasket handles DELETE /api/v1/basket
func (h *BasketHandler) ClearBasket(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearBasket(r.Context(), basketIDFromContext(r.Context())); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
