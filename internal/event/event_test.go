package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	pkgkafka "github.com/SashaVektor/apple-store-clone/pkg/kafka"
	"github.com/SashaVektor/apple-store-clone/pkg/logger"
)

// --- Test doubles ---

type published struct {
	topic string
	event *pkgkafka.Event
}

type capturePublisher struct {
	sent []published
	err  error
}

func (c *capturePublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, published{topic: topic, event: event})
	return nil
}

type mockBasketClearer struct {
	mock.Mock
}

func (m *mockBasketClearer) ClearBasket(ctx context.Context, basketID string) error {
	return m.Called(ctx, basketID).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleBasket() *domain.Basket {
	b := domain.NewBasket("basket-1", time.Now().UTC())
	b.Version = 3
	b.Items = []domain.BasketItem{
		{ProductID: "p1", Title: "iPhone 15", PriceCents: 79900, Quantity: 1},
		{ProductID: "p2", Title: "AirPods", PriceCents: 12900, Quantity: 2},
	}
	return b
}

func newTestEvent(eventType string, data any) *pkgkafka.Event {
	dataBytes, _ := json.Marshal(data)
	return &pkgkafka.Event{
		EventID:   "evt-test-123",
		EventType: eventType,
		Version:   1,
		Timestamp: time.Now().UTC(),
		Source:    "test",
		Data:      dataBytes,
	}
}

// --- Producer ---

func TestTopics(t *testing.T) {
	assert.Equal(t, "applestore.basket.updated", TopicBasketUpdated)
	assert.Equal(t, "applestore.basket.cleared", TopicBasketCleared)
	assert.Equal(t, "applestore.checkout.session_created", TopicCheckoutSessionCreated)
	assert.Equal(t, "applestore.order.confirmed", TopicOrderConfirmed)
}

func TestProducer_PublishBasketUpdated(t *testing.T) {
	pub := &capturePublisher{}
	p := NewProducer(pub, newTestLogger())

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	require.NoError(t, p.PublishBasketUpdated(ctx, sampleBasket()))

	require.Len(t, pub.sent, 1)
	got := pub.sent[0]
	assert.Equal(t, TopicBasketUpdated, got.topic)
	assert.Equal(t, "basket-1", got.event.AggregateID)
	assert.Equal(t, AggregateTypeBasket, got.event.AggregateType)
	assert.Equal(t, SourceStorefront, got.event.Source)
	assert.Equal(t, "corr-1", got.event.CorrelationID)

	var data BasketUpdatedData
	require.NoError(t, got.event.UnmarshalData(&data))
	assert.Equal(t, 3, data.ItemCount)
	assert.Equal(t, int64(105700), data.TotalAmount)
	assert.Equal(t, 3, data.Version)
	assert.Len(t, data.Items, 2)
}

func TestProducer_PublishCheckoutSessionCreated(t *testing.T) {
	pub := &capturePublisher{}
	p := NewProducer(pub, newTestLogger())

	session := &domain.CheckoutSession{ID: "cs_test_1"}
	require.NoError(t, p.PublishCheckoutSessionCreated(context.Background(), "stripe", sampleBasket(), session))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "cs_test_1", pub.sent[0].event.AggregateID)

	var data CheckoutSessionCreatedData
	require.NoError(t, pub.sent[0].event.UnmarshalData(&data))
	assert.Equal(t, "basket-1", data.BasketID)
	assert.Equal(t, "stripe", data.Provider)
}

func TestProducer_PublishOrderConfirmed(t *testing.T) {
	pub := &capturePublisher{}
	p := NewProducer(pub, newTestLogger())

	order := &domain.Order{ID: "order-1", CheckoutSessionID: "cs_1", BasketID: "basket-1", TotalAmount: 81900, Currency: "usd"}
	require.NoError(t, p.PublishOrderConfirmed(context.Background(), order))

	var data OrderConfirmedData
	require.NoError(t, pub.sent[0].event.UnmarshalData(&data))
	assert.Equal(t, "basket-1", data.BasketID)
	assert.Equal(t, "cs_1", data.SessionID)
}

func TestProducer_PublishError(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	p := NewProducer(pub, newTestLogger())

	err := p.PublishBasketCleared(context.Background(), "basket-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish applestore.basket.cleared event")
}

// --- Consumer ---

func TestConsumer_HandleOrderConfirmed_ClearsBasket(t *testing.T) {
	clearer := new(mockBasketClearer)
	c := NewConsumer(clearer, newTestLogger())
	ctx := context.Background()

	clearer.On("ClearBasket", ctx, "basket-1").Return(nil)

	err := c.HandleOrderConfirmed(ctx, newTestEvent(TopicOrderConfirmed, OrderConfirmedData{OrderID: "o1", BasketID: "basket-1"}))
	require.NoError(t, err)
	clearer.AssertExpectations(t)
}

func TestConsumer_HandleOrderConfirmed_NoBasketIsNoop(t *testing.T) {
	clearer := new(mockBasketClearer)
	c := NewConsumer(clearer, newTestLogger())

	err := c.HandleOrderConfirmed(context.Background(), newTestEvent(TopicOrderConfirmed, OrderConfirmedData{OrderID: "o1"}))
	require.NoError(t, err)
	clearer.AssertNotCalled(t, "ClearBasket", mock.Anything, mock.Anything)
}

func TestConsumer_HandleOrderConfirmed_ClearError(t *testing.T) {
	clearer := new(mockBasketClearer)
	c := NewConsumer(clearer, newTestLogger())
	ctx := context.Background()

	clearer.On("ClearBasket", ctx, "basket-1").Return(errors.New("redis down"))

	err := c.HandleOrderConfirmed(ctx, newTestEvent(TopicOrderConfirmed, OrderConfirmedData{BasketID: "basket-1"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear basket basket-1")
}

func TestConsumer_HandleOrderConfirmed_BadPayload(t *testing.T) {
	clearer := new(mockBasketClearer)
	c := NewConsumer(clearer, newTestLogger())

	evt := &pkgkafka.Event{EventID: "e1", EventType: TopicOrderConfirmed, Data: json.RawMessage(`[1,2]`)}
	err := c.HandleOrderConfirmed(context.Background(), evt)
	require.Error(t, err)
}
