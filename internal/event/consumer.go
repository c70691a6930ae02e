package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/SashaVektor/apple-store-clone/pkg/kafka"
	"github.com/SashaVektor/apple-store-clone/pkg/logger"
)

// BasketCleanupGroup is the consumer group that empties baskets once their
// order is confirmed.
const BasketCleanupGroup = "storefront-basket-cleanup"

// BasketClearer is the part of the basket service the consumer needs.
type BasketClearer interface {
	ClearBasket(ctx context.Context, basketID string) error
}

// Consumer processes incoming Kafka events for the storefront.
type Consumer struct {
	baskets BasketClearer
	logger  *slog.Logger
}

// NewConsumer creates a new event consumer.
func NewConsumer(baskets BasketClearer, logger *slog.Logger) *Consumer {
	return &Consumer{
		baskets: baskets,
		logger:  logger,
	}
}

// HandleOrderConfirmed empties the basket the order was paid from.
func (c *Consumer) HandleOrderConfirmed(ctx context.Context, event *pkgkafka.Event) error {
	var data OrderConfirmedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal order.confirmed data: %w", err)
	}

	if data.BasketID == "" {
		logger.WithContext(ctx, c.logger).WarnContext(ctx, "order.confirmed without basket id, nothing to clear",
			slog.String("order_id", data.OrderID),
			slog.String("session_id", data.SessionID),
		)
		return nil
	}

	if err := c.baskets.ClearBasket(ctx, data.BasketID); err != nil {
		return fmt.Errorf("clear basket %s: %w", data.BasketID, err)
	}

	logger.WithContext(logger.WithBasketID(ctx, data.BasketID), c.logger).InfoContext(ctx, "basket cleared after order confirmation",
		slog.String("order_id", data.OrderID),
	)
	return nil
}
