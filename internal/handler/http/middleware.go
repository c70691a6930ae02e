package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/SashaVektor/apple-store-clone/pkg/httputil"
	"github.com/SashaVektor/apple-store-clone/pkg/middleware"
	"github.com/SashaVektor/apple-store-clone/pkg/validator"
)

type contextKey string

const basketIDKey contextKey = "basket_id"

// basketIDRule matches the client-generated IDs: UUIDs or nanoids.
const basketIDRule = "max=128,basketid"

// RequireBasketID reads the X-Basket-ID header, which the client generates
// once and keeps in local storage, and stores it in the request context.
func RequireBasketID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.BasketIDHeader)
		if id == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: middleware.BasketIDHeader + " header is required"},
			})
			return
		}
		if err := validator.Var(id, basketIDRule); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: middleware.BasketIDHeader + " header is malformed"},
			})
			return
		}
		ctx := context.WithValue(r.Context(), basketIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func basketIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(basketIDKey).(string)
	return id
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
