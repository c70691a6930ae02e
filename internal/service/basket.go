package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	"github.com/SashaVektor/apple-store-clone/internal/repository"
	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
	"github.com/SashaVektor/apple-store-clone/pkg/logger"
)

// AddItemInput holds the parameters for adding a product to the basket.
// The price is never taken from the client.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required,max=128"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1,lte=10"`
}

// BasketView is a basket with its derived totals.
type BasketView struct {
	*domain.Basket
	ItemCount int   `json:"item_count"`
	Subtotal  int64 `json:"subtotal"`
}

// NewBasketView computes the derived fields for b.
func NewBasketView(b *domain.Basket) *BasketView {
	return &BasketView{Basket: b, ItemCount: b.ItemCount(), Subtotal: b.Total()}
}

// BasketService implements the business logic for basket operations.
type BasketService struct {
	repo      repository.BasketRepository
	catalog   *CatalogService
	events    EventPublisher
	logger    *slog.Logger
	basketTTL time.Duration
	now       func() time.Time
}

// NewBasketService creates a new basket service.
func NewBasketService(repo repository.BasketRepository, catalog *CatalogService, events EventPublisher, logger *slog.Logger, basketTTL time.Duration) *BasketService {
	return &BasketService{
		repo:      repo,
		catalog:   catalog,
		events:    events,
		logger:    logger,
		basketTTL: basketTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetBasket returns the stored basket, or an empty unsaved one.
func (s *BasketService) GetBasket(ctx context.Context, basketID string) (*domain.Basket, error) {
	if basketID == "" {
		return nil, apperrors.InvalidInput("basket id is required")
	}
	return s.getOrNew(ctx, basketID)
}

// AddItem adds quantity units of a catalog product. The unit price comes
// from the catalog at the time of the call.
func (s *BasketService) AddItem(ctx context.Context, basketID string, input AddItemInput) (*domain.Basket, error) {
	if basketID == "" {
		return nil, apperrors.InvalidInput("basket id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	basket, err := s.getOrNew(ctx, basketID)
	if err != nil {
		return nil, err
	}
	expectedVersion := basket.Version

	if err := basket.Add(product, input.Quantity); err != nil {
		basketOperations.WithLabelValues("add", "rejected").Inc()
		switch {
		case errors.Is(err, domain.ErrQuantityLimit):
			return nil, apperrors.InvalidInput(fmt.Sprintf("quantity per product must not exceed %d", domain.MaxQuantityPerLine))
		case errors.Is(err, domain.ErrBasketFull):
			return nil, apperrors.InvalidInput(fmt.Sprintf("basket must not contain more than %d products", domain.MaxBasketLines))
		default:
			return nil, apperrors.InvalidInput(err.Error())
		}
	}

	if err := s.save(ctx, basket, expectedVersion, "add"); err != nil {
		return nil, err
	}

	s.log(ctx, basketID).InfoContext(ctx, "item added to basket",
		slog.String("product_id", product.ID),
		slog.Int("quantity", input.Quantity),
	)
	return basket, nil
}

// RemoveItem takes one unit of productID out of the basket. Removing a
// product that is not in the basket logs a warning and changes nothing.
func (s *BasketService) RemoveItem(ctx context.Context, basketID, productID string) (*domain.Basket, error) {
	if basketID == "" {
		return nil, apperrors.InvalidInput("basket id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	basket, err := s.getOrNew(ctx, basketID)
	if err != nil {
		return nil, err
	}
	expectedVersion := basket.Version

	if !basket.RemoveOne(productID) {
		basketOperations.WithLabelValues("remove", "absent").Inc()
		s.log(ctx, basketID).WarnContext(ctx, "cannot remove product: not in basket",
			slog.String("product_id", productID),
		)
		return basket, nil
	}

	if err := s.save(ctx, basket, expectedVersion, "remove"); err != nil {
		return nil, err
	}

	s.log(ctx, basketID).InfoContext(ctx, "item removed from basket",
		slog.String("product_id", productID),
	)
	return basket, nil
}

// ClearBasket deletes the basket. Clearing a missing basket is not an error.
func (s *BasketService) ClearBasket(ctx context.Context, basketID string) error {
	if basketID == "" {
		return apperrors.InvalidInput("basket id is required")
	}

	if err := s.repo.Delete(ctx, basketID); err != nil {
		return fmt.Errorf("delete basket: %w", err)
	}
	basketOperations.WithLabelValues("clear", "ok").Inc()

	if err := s.events.PublishBasketCleared(ctx, basketID); err != nil {
		s.log(ctx, basketID).ErrorContext(ctx, "failed to publish basket.cleared event",
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx, basketID).InfoContext(ctx, "basket cleared")
	return nil
}

func (s *BasketService) save(ctx context.Context, basket *domain.Basket, expectedVersion int, op string) error {
	now := s.now()
	basket.UpdatedAt = now
	basket.ExpiresAt = now.Add(s.basketTTL)

	ok, err := s.repo.SaveIfVersion(ctx, basket, expectedVersion)
	if err != nil {
		basketOperations.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("save basket: %w", err)
	}
	if !ok {
		basketOperations.WithLabelValues(op, "conflict").Inc()
		return apperrors.Conflict("basket was modified concurrently, please retry")
	}
	basketOperations.WithLabelValues(op, "ok").Inc()

	if err := s.events.PublishBasketUpdated(ctx, basket); err != nil {
		s.log(ctx, basket.ID).ErrorContext(ctx, "failed to publish basket.updated event",
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// log returns the service logger carrying the request's correlation_id and
// the basket being worked on.
func (s *BasketService) log(ctx context.Context, basketID string) *slog.Logger {
	return logger.WithContext(logger.WithBasketID(ctx, basketID), s.logger)
}

func (s *BasketService) getOrNew(ctx context.Context, basketID string) (*domain.Basket, error) {
	basket, err := s.repo.Get(ctx, basketID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			b := domain.NewBasket(basketID, s.now())
			b.ExpiresAt = b.CreatedAt.Add(s.basketTTL)
			return b, nil
		}
		return nil, fmt.Errorf("get basket: %w", err)
	}
	return basket, nil
}
