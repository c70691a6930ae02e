package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	pkgkafka "github.com/SashaVektor/apple-store-clone/pkg/kafka"
	"github.com/SashaVektor/apple-store-clone/pkg/logger"
)

// Kafka topics produced by the storefront.
var (
	TopicBasketUpdated          = pkgkafka.Topic("basket", "updated")
	TopicBasketCleared          = pkgkafka.Topic("basket", "cleared")
	TopicCheckoutSessionCreated = pkgkafka.Topic("checkout", "session_created")
	TopicOrderConfirmed         = pkgkafka.Topic("order", "confirmed")
)

// Aggregate types.
const (
	AggregateTypeBasket   = "basket"
	AggregateTypeCheckout = "checkout_session"
	AggregateTypeOrder    = "order"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// BasketUpdatedData is the payload for a basket.updated event.
type BasketUpdatedData struct {
	BasketID    string           `json:"basket_id"`
	Items       []BasketItemData `json:"items"`
	ItemCount   int              `json:"item_count"`
	TotalAmount int64            `json:"total_amount"`
	Currency    string           `json:"currency"`
	Version     int              `json:"version"`
}

// BasketItemData is the item payload within basket events.
type BasketItemData struct {
	ProductID  string `json:"product_id"`
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

// BasketClearedData is the payload for a basket.cleared event.
type BasketClearedData struct {
	BasketID string `json:"basket_id"`
}

// CheckoutSessionCreatedData is the payload for a checkout.session_created event.
type CheckoutSessionCreatedData struct {
	SessionID   string `json:"session_id"`
	BasketID    string `json:"basket_id"`
	Provider    string `json:"provider"`
	ItemCount   int    `json:"item_count"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

// OrderConfirmedData is the payload for an order.confirmed event.
type OrderConfirmedData struct {
	OrderID       string `json:"order_id"`
	SessionID     string `json:"session_id"`
	BasketID      string `json:"basket_id"`
	CustomerEmail string `json:"customer_email,omitempty"`
	TotalAmount   int64  `json:"total_amount"`
	Currency      string `json:"currency"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishBasketUpdated publishes a basket.updated event.
func (p *Producer) PublishBasketUpdated(ctx context.Context, basket *domain.Basket) error {
	items := make([]BasketItemData, len(basket.Items))
	for i, item := range basket.Items {
		items[i] = BasketItemData{
			ProductID:  item.ProductID,
			Title:      item.Title,
			PriceCents: item.PriceCents,
			Quantity:   item.Quantity,
		}
	}

	return p.publish(ctx, TopicBasketUpdated, basket.ID, AggregateTypeBasket, BasketUpdatedData{
		BasketID:    basket.ID,
		Items:       items,
		ItemCount:   basket.ItemCount(),
		TotalAmount: basket.Total(),
		Currency:    basket.Currency,
		Version:     basket.Version,
	})
}

// PublishBasketCleared publishes a basket.cleared event.
func (p *Producer) PublishBasketCleared(ctx context.Context, basketID string) error {
	return p.publish(ctx, TopicBasketCleared, basketID, AggregateTypeBasket, BasketClearedData{BasketID: basketID})
}

// PublishCheckoutSessionCreated publishes a checkout.session_created event.
func (p *Producer) PublishCheckoutSessionCreated(ctx context.Context, provider string, basket *domain.Basket, session *domain.CheckoutSession) error {
	return p.publish(ctx, TopicCheckoutSessionCreated, session.ID, AggregateTypeCheckout, CheckoutSessionCreatedData{
		SessionID:   session.ID,
		BasketID:    basket.ID,
		Provider:    provider,
		ItemCount:   basket.ItemCount(),
		TotalAmount: basket.Total(),
		Currency:    basket.Currency,
	})
}

// PublishOrderConfirmed publishes an order.confirmed event.
func (p *Producer) PublishOrderConfirmed(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderConfirmed, order.ID, AggregateTypeOrder, OrderConfirmedData{
		OrderID:       order.ID,
		SessionID:     order.CheckoutSessionID,
		BasketID:      order.BasketID,
		CustomerEmail: order.CustomerEmail,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
	})
}
