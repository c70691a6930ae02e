package middleware

import (
	"log/slog"
	"net/http"

	"github.com/SashaVektor/apple-store-clone/pkg/logger"
)

// BasketIDHeader identifies the shopper's basket on basket and checkout calls.
const BasketIDHeader = "X-Basket-ID"

// RequestLogger stores a request-scoped logger in the context, carrying
// correlation_id, basket_id, trace_id and span_id. Mount it after
// RequestLogging and Tracing so those values are already present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if basketID := r.Header.Get(BasketIDHeader); basketID != "" {
				ctx = logger.WithBasketID(ctx, basketID)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
