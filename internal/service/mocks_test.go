package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	"github.com/SashaVektor/apple-store-clone/internal/payment"
	"github.com/SashaVektor/apple-store-clone/internal/repository"
)

// --- Mock CatalogSource ---

type mockCatalogSource struct {
	mock.Mock
}

func (m *mockCatalogSource) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockCatalogSource) GetProduct(ctx context.Context, key string) (*domain.Product, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalogSource) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

// --- Fake CatalogCache ---

type fakeCatalogCache struct {
	fresh map[string][]byte
	stale map[string][]byte
}

func newFakeCatalogCache() *fakeCatalogCache {
	return &fakeCatalogCache{fresh: map[string][]byte{}, stale: map[string][]byte{}}
}

func (c *fakeCatalogCache) Load(_ context.Context, key string, dst any) (repository.CacheState, error) {
	if b, ok := c.fresh[key]; ok {
		return repository.CacheFresh, json.Unmarshal(b, dst)
	}
	if b, ok := c.stale[key]; ok {
		return repository.CacheStale, json.Unmarshal(b, dst)
	}
	return repository.CacheMiss, nil
}

func (c *fakeCatalogCache) Store(_ context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.fresh[key] = b
	c.stale[key] = b
	return nil
}

// expire drops every fresh entry, leaving the stale copies.
func (c *fakeCatalogCache) expire() {
	c.fresh = map[string][]byte{}
}

// --- Mock BasketRepository ---

type mockBasketRepository struct {
	mock.Mock
}

func (m *mockBasketRepository) Get(ctx context.Context, basketID string) (*domain.Basket, error) {
	args := m.Called(ctx, basketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Basket), args.Error(1)
}

func (m *mockBasketRepository) SaveIfVersion(ctx context.Context, basket *domain.Basket, expectedVersion int) (bool, error) {
	args := m.Called(ctx, basket, expectedVersion)
	return args.Bool(0), args.Error(1)
}

func (m *mockBasketRepository) Delete(ctx context.Context, basketID string) error {
	return m.Called(ctx, basketID).Error(0)
}

// --- Mock OrderRepository ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]domain.Order, int, error) {
	args := m.Called(ctx, email, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

// --- Mock payment.Provider ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string {
	return "mockpay"
}

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, input *payment.SessionInput) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

func (m *mockProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

func (m *mockProvider) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

// --- Mock EventPublisher ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishBasketUpdated(ctx context.Context, basket *domain.Basket) error {
	return m.Called(ctx, basket).Error(0)
}

func (m *mockEvents) PublishBasketCleared(ctx context.Context, basketID string) error {
	return m.Called(ctx, basketID).Error(0)
}

func (m *mockEvents) PublishCheckoutSessionCreated(ctx context.Context, provider string, basket *domain.Basket, session *domain.CheckoutSession) error {
	return m.Called(ctx, provider, basket, session).Error(0)
}

func (m *mockEvents) PublishOrderConfirmed(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func iphone() *domain.Product {
	return &domain.Product{
		ID:         "prod-iphone",
		Title:      "iPhone 15",
		Slug:       "iphone-15",
		PriceCents: 79900,
		Currency:   domain.DefaultCurrency,
		CategoryID: "cat-phones",
		Images:     []domain.Image{{AssetRef: "image-abc-800x600-png", URL: "https://cdn.sanity.io/images/h35sm18t/production/abc-800x600.png"}},
	}
}

func airpods() *domain.Product {
	return &domain.Product{
		ID:         "prod-airpods",
		Title:      "AirPods Pro",
		Slug:       "airpods-pro",
		PriceCents: 24900,
		Currency:   domain.DefaultCurrency,
		CategoryID: "cat-audio",
	}
}

func categories() []domain.Category {
	return []domain.Category{
		{ID: "cat-audio", Title: "Audio", Slug: "audio"},
		{ID: "cat-phones", Title: "iPhone & Accessories", Slug: "iphone-and-accessories"},
	}
}
