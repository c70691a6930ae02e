package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	"github.com/SashaVektor/apple-store-clone/internal/payment"
	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
)

func newCheckoutFixture() (*CheckoutService, *mockBasketRepository, *mockProvider, *mockEvents) {
	repo := new(mockBasketRepository)
	provider := new(mockProvider)
	events := new(mockEvents)
	baskets := NewBasketService(repo, NewCatalogService(new(mockCatalogSource), nil, newTestLogger()), events, newTestLogger(), time.Hour)
	return NewCheckoutService(baskets, provider, events, newTestLogger()), repo, provider, events
}

func TestCreateCheckoutSession_EmptyBasket(t *testing.T) {
	svc, repo, provider, _ := newCheckoutFixture()
	ctx := context.Background()

	repo.On("Get", ctx, "basket-1").Return(nil, apperrors.NotFound("basket", "basket-1"))

	_, err := svc.CreateCheckoutSession(ctx, "basket-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "basket is empty")
	provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateCheckoutSession_OneProviderCall(t *testing.T) {
	svc, repo, provider, events := newCheckoutFixture()
	ctx := context.Background()

	basket := basketWith("basket-1",
		domain.BasketItem{ProductID: "prod-iphone", Title: "iPhone 15", PriceCents: 79900, ImageURL: "https://cdn/x.png", Quantity: 1},
		domain.BasketItem{ProductID: "prod-airpods", Title: "AirPods Pro", PriceCents: 24900, Quantity: 2},
	)
	session := &domain.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}

	repo.On("Get", ctx, "basket-1").Return(basket, nil)
	provider.On("CreateCheckoutSession", ctx, mock.MatchedBy(func(in *payment.SessionInput) bool {
		return in.BasketID == "basket-1" &&
			len(in.Items) == 2 &&
			in.Items[0].UnitAmount == 79900 &&
			in.Items[0].ImageURL == "https://cdn/x.png" &&
			in.Items[1].Quantity == 2 &&
			in.Subtotal() == 129700
	})).Return(session, nil).Once()
	events.On("PublishCheckoutSessionCreated", ctx, "mockpay", basket, session).Return(nil)

	redirect, err := svc.CreateCheckoutSession(ctx, "basket-1")
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", redirect.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", redirect.URL)

	provider.AssertNumberOfCalls(t, "CreateCheckoutSession", 1)
	events.AssertExpectations(t)
}

func TestCreateCheckoutSession_ProviderError(t *testing.T) {
	svc, repo, provider, events := newCheckoutFixture()
	ctx := context.Background()

	basket := basketWith("basket-1", domain.BasketItem{ProductID: "p", Title: "P", PriceCents: 100, Quantity: 1})
	repo.On("Get", ctx, "basket-1").Return(basket, nil)
	provider.On("CreateCheckoutSession", ctx, mock.Anything).Return(nil, apperrors.PaymentFailed("card_declined"))

	_, err := svc.CreateCheckoutSession(ctx, "basket-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPaymentFailed)
	events.AssertNotCalled(t, "PublishCheckoutSessionCreated", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateCheckoutSession_PublishFailureIgnored(t *testing.T) {
	svc, repo, provider, events := newCheckoutFixture()
	ctx := context.Background()

	basket := basketWith("basket-1", domain.BasketItem{ProductID: "p", Title: "P", PriceCents: 100, Quantity: 1})
	repo.On("Get", ctx, "basket-1").Return(basket, nil)
	provider.On("CreateCheckoutSession", ctx, mock.Anything).Return(&domain.CheckoutSession{ID: "cs_2", URL: "u"}, nil)
	events.On("PublishCheckoutSessionCreated", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("kafka down"))

	redirect, err := svc.CreateCheckoutSession(ctx, "basket-1")
	require.NoError(t, err)
	assert.Equal(t, "cs_2", redirect.SessionID)
}

func TestCreateCheckoutSession_RequiresBasketID(t *testing.T) {
	svc, _, _, _ := newCheckoutFixture()
	_, err := svc.CreateCheckoutSession(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
