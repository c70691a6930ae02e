package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_catalog_cache_results_total",
			Help: "Catalog reads by cache outcome (fresh, miss, stale_fallback)",
		},
		[]string{"result"},
	)

	basketOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_basket_operations_total",
			Help: "Basket mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	checkoutSessionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_sessions_created_total",
			Help: "Hosted checkout sessions opened",
		},
		[]string{"provider"},
	)

	checkoutSessionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_session_errors_total",
			Help: "Failed attempts to open a hosted checkout session",
		},
		[]string{"provider"},
	)

	ordersConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_orders_confirmed_total",
			Help: "Orders stored for the first time",
		},
	)

	orderRevenueCents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_revenue_cents_total",
			Help: "Revenue from confirmed orders in minor units",
		},
		[]string{"currency"},
	)

	webhooksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_payment_webhooks_total",
			Help: "Verified payment webhooks by event type",
		},
		[]string{"event_type"},
	)
)
