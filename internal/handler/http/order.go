package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/SashaVektor/apple-store-clone/internal/service"
	"github.com/SashaVektor/apple-store-clone/pkg/httputil"
	"github.com/SashaVektor/apple-store-clone/pkg/pagination"
)

// maxWebhookBody matches the payload limit Stripe documents for webhooks.
const maxWebhookBody = 65536

// OrderHandler serves order confirmations, order history and payment webhooks.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// GetConfirmation handles GET /api/v1/orders/confirmation?session_id=
func (h *OrderHandler) GetConfirmation(w http.ResponseWriter, r *http.Request) {
	confirmation, err := h.service.GetOrderConfirmation(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, confirmation)
}

// ListOrders handles GET /api/v1/orders?email=&session_id=&page=&per_page=
// session_id must be the checkout session of one of the customer's orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.service.ListOrders(r.Context(), q.Get("email"), q.Get("session_id"), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}

// PaymentWebhook handles POST /webhooks/payment. The body is passed through
// untouched because the signature covers the exact bytes.
func (h *OrderHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "PAYLOAD_TOO_LARGE", Message: "webhook payload too large"},
			})
			return
		}
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "cannot read webhook payload"},
		})
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]bool{"received": true})
}
