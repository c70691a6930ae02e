package service

import (
	"context"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
)

// CatalogSource is where products and categories are published.
type CatalogSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, key string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// EventPublisher announces storefront state changes. Implementations are
// called best effort: errors are logged, never returned to the shopper.
type EventPublisher interface {
	PublishBasketUpdated(ctx context.Context, basket *domain.Basket) error
	PublishBasketCleared(ctx context.Context, basketID string) error
	PublishCheckoutSessionCreated(ctx context.Context, provider string, basket *domain.Basket, session *domain.CheckoutSession) error
	PublishOrderConfirmed(ctx context.Context, order *domain.Order) error
}
