package repository

import (
	"context"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
)

// BasketRepository persists baskets keyed by basket ID.
type BasketRepository interface {
	// Get returns the stored basket or a NotFound AppError.
	Get(ctx context.Context, basketID string) (*domain.Basket, error)

	// SaveIfVersion stores basket only if the stored version still equals
	// expectedVersion (0 for a basket that was never saved). On success
	// basket.Version is incremented. It returns false on a version clash.
	SaveIfVersion(ctx context.Context, basket *domain.Basket, expectedVersion int) (bool, error)

	Delete(ctx context.Context, basketID string) error
}

// CacheState says how fresh a cached catalog entry is.
type CacheState int

const (
	CacheMiss CacheState = iota
	CacheFresh
	// CacheStale entries are past their TTL but kept as a fallback for
	// when the CMS cannot be reached.
	CacheStale
)

// CatalogCache stores CMS listings as JSON.
type CatalogCache interface {
	// Load decodes the freshest available copy of key into dst.
	Load(ctx context.Context, key string, dst any) (CacheState, error)
	Store(ctx context.Context, key string, v any) error
}

// OrderRepository persists confirmed orders.
type OrderRepository interface {
	// Create inserts order unless one exists for its checkout session.
	// It reports whether a row was inserted.
	Create(ctx context.Context, order *domain.Order) (bool, error)

	GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)

	// ListByEmail returns one page of the customer's orders, newest first,
	// with the total number of orders.
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.Order, int, error)
}
