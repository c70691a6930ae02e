package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	"github.com/SashaVektor/apple-store-clone/internal/payment"
	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
	"github.com/SashaVektor/apple-store-clone/pkg/logger"
)

// CheckoutService turns a basket into a hosted payment page.
type CheckoutService struct {
	baskets  *BasketService
	provider payment.Provider
	events   EventPublisher
	logger   *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(baskets *BasketService, provider payment.Provider, events EventPublisher, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		baskets:  baskets,
		provider: provider,
		events:   events,
		logger:   logger,
	}
}

// CreateCheckoutSession opens a provider session for the basket's contents
// and returns where to redirect the shopper.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, basketID string) (*domain.CheckoutRedirect, error) {
	basket, err := s.baskets.GetBasket(ctx, basketID)
	if err != nil {
		return nil, err
	}
	if basket.IsEmpty() {
		return nil, apperrors.InvalidInput("basket is empty")
	}

	input := &payment.SessionInput{
		BasketID: basket.ID,
		Currency: basket.Currency,
		Items:    make([]payment.SessionItem, 0, len(basket.Items)),
	}
	for _, item := range basket.Items {
		input.Items = append(input.Items, payment.SessionItem{
			ProductID:  item.ProductID,
			Name:       item.Title,
			ImageURL:   item.ImageURL,
			UnitAmount: item.PriceCents,
			Quantity:   int64(item.Quantity),
		})
	}

	provider := s.provider.Name()
	session, err := s.provider.CreateCheckoutSession(ctx, input)
	if err != nil {
		checkoutSessionErrors.WithLabelValues(provider).Inc()
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	checkoutSessionsCreated.WithLabelValues(provider).Inc()

	if err := s.events.PublishCheckoutSessionCreated(ctx, provider, basket, session); err != nil {
		s.log(ctx, basket.ID).ErrorContext(ctx, "failed to publish checkout.session_created event",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx, basket.ID).InfoContext(ctx, "checkout session created",
		slog.String("session_id", session.ID),
		slog.String("provider", provider),
		slog.Int64("subtotal", basket.Total()),
	)

	return &domain.CheckoutRedirect{SessionID: session.ID, URL: session.URL}, nil
}

func (s *CheckoutService) log(ctx context.Context, basketID string) *slog.Logger {
	return logger.WithContext(logger.WithBasketID(ctx, basketID), s.logger)
}
