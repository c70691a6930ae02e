package http

import (
	"log/slog"
	"net/http"

	"github.com/SashaVektor/apple-store-clone/internal/service"
	"github.com/SashaVektor/apple-store-clone/pkg/httputil"
)

// CheckoutHandler opens hosted checkout sessions.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// CreateSession handles POST /api/v1/checkout/sessions
func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.service.CreateCheckoutSession(r.Context(), basketIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, redirect)
}
