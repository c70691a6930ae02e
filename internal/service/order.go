package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	"github.com/SashaVektor/apple-store-clone/internal/payment"
	"github.com/SashaVektor/apple-store-clone/internal/repository"
	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
	"github.com/SashaVektor/apple-store-clone/pkg/logger"
	"github.com/SashaVektor/apple-store-clone/pkg/pagination"
)

// OrderService builds confirmation summaries and records paid sessions.
type OrderService struct {
	repo         repository.OrderRepository
	provider     payment.Provider
	events       EventPublisher
	logger       *slog.Logger
	flatShipping int64
	now          func() time.Time
}

// NewOrderService creates a new order service. flatShipping is charged in
// summaries when the provider reports no shipping cost.
func NewOrderService(repo repository.OrderRepository, provider payment.Provider, events EventPublisher, logger *slog.Logger, flatShipping int64) *OrderService {
	return &OrderService{
		repo:         repo,
		provider:     provider,
		events:       events,
		logger:       logger,
		flatShipping: flatShipping,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GetOrderConfirmation summarizes a checkout session for the success page.
// Paid sessions are recorded as orders on the way.
func (s *OrderService) GetOrderConfirmation(ctx context.Context, sessionID string) (*domain.OrderConfirmation, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session_id is required")
	}

	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}

	summary := s.summarize(session)

	if session.IsPaid() {
		if _, err := s.ConfirmOrder(ctx, session); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// ConfirmOrder stores session as an order. It is safe to call repeatedly:
// only the first call inserts and publishes order.confirmed.
func (s *OrderService) ConfirmOrder(ctx context.Context, session *domain.CheckoutSession) (*domain.Order, error) {
	if !session.IsPaid() {
		return nil, apperrors.InvalidInput("checkout session is not paid")
	}

	order := s.toOrder(session)
	inserted, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if !inserted {
		s.log(ctx).DebugContext(ctx, "order already recorded",
			slog.String("session_id", session.ID),
		)
		existing, err := s.repo.GetBySessionID(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("get existing order: %w", err)
		}
		return existing, nil
	}

	ordersConfirmed.Inc()
	orderRevenueCents.WithLabelValues(strings.ToLower(order.Currency)).Add(float64(order.TotalAmount))

	if err := s.events.PublishOrderConfirmed(ctx, order); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to publish order.confirmed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.log(ctx).InfoContext(ctx, "order confirmed",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.Number()),
		slog.String("session_id", session.ID),
		slog.Int64("total_amount", order.TotalAmount),
	)
	return order, nil
}

// HandleWebhook verifies a provider notification and confirms the order
// for completed sessions. Other event types are acknowledged and ignored.
func (s *OrderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	webhooksReceived.WithLabelValues(evt.Type).Inc()

	if evt.Type != payment.EventCheckoutSessionCompleted {
		s.log(ctx).DebugContext(ctx, "ignoring webhook event",
			slog.String("event_id", evt.ID),
			slog.String("event_type", evt.Type),
		)
		return nil
	}
	if evt.SessionID == "" {
		return apperrors.InvalidInput("webhook event has no checkout session")
	}

	session, err := s.provider.GetCheckoutSession(ctx, evt.SessionID)
	if err != nil {
		return fmt.Errorf("get checkout session: %w", err)
	}
	if !session.IsPaid() {
		// Delayed payment methods complete the session before paying.
		s.log(ctx).InfoContext(ctx, "checkout completed but not yet paid",
			slog.String("session_id", session.ID),
			slog.String("payment_status", session.PaymentStatus),
		)
		return nil
	}

	_, err = s.ConfirmOrder(ctx, session)
	return err
}

// ListOrders returns one page of a customer's orders, newest first.
// sessionID proves ownership: it must be the checkout session of one of
// that customer's orders. A mismatch looks the same as an unknown session.
func (s *OrderService) ListOrders(ctx context.Context, email, sessionID string, params pagination.Params) (*pagination.Result[domain.Order], error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session_id is required")
	}

	owned, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("order", sessionID)
		}
		return nil, fmt.Errorf("get order by session: %w", err)
	}
	if !strings.EqualFold(owned.CustomerEmail, email) {
		s.log(ctx).WarnContext(ctx, "order history requested with a session of another customer",
			slog.String("session_id", sessionID),
		)
		return nil, apperrors.NotFound("order", sessionID)
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 {
		params.PerPage = pagination.DefaultPerPage
	}

	orders, total, err := s.repo.ListByEmail(ctx, owned.CustomerEmail, params.PerPage, params.Offset())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	result := pagination.NewResult(orders, total, params)
	return &result, nil
}

// log returns the service logger carrying the correlation_id and trace of ctx.
func (s *OrderService) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, s.logger)
}

func (s *OrderService) shippingFor(session *domain.CheckoutSession) int64 {
	if session.ShippingAmount > 0 {
		return session.ShippingAmount
	}
	return s.flatShipping
}

func (s *OrderService) summarize(session *domain.CheckoutSession) *domain.OrderConfirmation {
	items := session.LineItems
	if items == nil {
		items = []domain.LineItem{}
	}

	var subtotal int64
	for _, it := range items {
		subtotal += it.AmountTotal
	}
	shipping := s.shippingFor(session)

	status := domain.OrderStatusPending
	if session.IsPaid() {
		status = domain.OrderStatusPaid
	}

	return &domain.OrderConfirmation{
		SessionID:      session.ID,
		OrderNumber:    domain.ShortNumber(session.ID),
		Greeting:       domain.FirstNameOrGuest(session.CustomerName),
		CustomerEmail:  session.CustomerEmail,
		Status:         status,
		Items:          items,
		SubtotalAmount: subtotal,
		ShippingAmount: shipping,
		TotalAmount:    subtotal + shipping,
		Currency:       session.Currency,
	}
}

func (s *OrderService) toOrder(session *domain.CheckoutSession) *domain.Order {
	summary := s.summarize(session)
	now := s.now()

	currency := session.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	return &domain.Order{
		ID:                uuid.New().String(),
		CheckoutSessionID: session.ID,
		BasketID:          session.BasketID,
		CustomerName:      session.CustomerName,
		CustomerEmail:     session.CustomerEmail,
		Status:            domain.OrderStatusPaid,
		Items:             summary.Items,
		SubtotalAmount:    summary.SubtotalAmount,
		ShippingAmount:    summary.ShippingAmount,
		TotalAmount:       summary.TotalAmount,
		Currency:          strings.ToUpper(currency),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
