package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SashaVektor/apple-store-clone/internal/service"
	"github.com/SashaVektor/apple-store-clone/pkg/health"
	"github.com/SashaVektor/apple-store-clone/pkg/middleware"
)

// catalogMaxAge is how long browsers and CDNs may cache catalog reads.
const catalogMaxAge = 60

// RouterConfig carries what NewRouter needs besides the services.
type RouterConfig struct {
	ServiceName    string
	RequestTimeout time.Duration
	CORSOrigins    []string
	PprofCIDRs     []string
	// CheckoutRateLimit throttles checkout session creation per basket and per
	// remote address. A zero PerMinute disables it.
	CheckoutRateLimit middleware.RateLimitConfig
}

// Services groups the business services exposed over HTTP.
type Services struct {
	Catalog  *service.CatalogService
	Baskets  *service.BasketService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig, svcs Services, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	}

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	catalog := NewCatalogHandler(svcs.Catalog, logger)
	baskets := NewBasketHandler(svcs.Baskets, logger)
	checkout := NewCheckoutHandler(svcs.Checkout, logger)
	orders := NewOrderHandler(svcs.Orders, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(catalogMaxAge))
			r.Get("/products", catalog.ListProducts)
			r.Get("/products/{idOrSlug}", catalog.GetProduct)
			r.Get("/categories", catalog.ListCategories)
		})

		r.Route("/basket", func(r chi.Router) {
			r.Use(RequireBasketID)
			r.Get("/", baskets.GetBasket)
			r.Delete("/", baskets.ClearBasket)
			r.Post("/items", baskets.AddItem)
			r.Delete("/items/{productId}", baskets.RemoveItem)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireBasketID)
			if cfg.CheckoutRateLimit.PerMinute > 0 {
				r.Use(middleware.RateLimit(cfg.CheckoutRateLimit, logger))
			}
			r.Post("/checkout/sessions", checkout.CreateSession)
		})

		r.Get("/orders", orders.ListOrders)
		r.Get("/orders/confirmation", orders.GetConfirmation)
	})

	r.Post("/webhooks/payment", orders.PaymentWebhook)

	return r
}
