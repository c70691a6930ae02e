package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	"github.com/SashaVektor/apple-store-clone/internal/payment"
	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
)

// Provider is an in-memory checkout provider for development and tests.
// Every session it creates is already complete and paid.
type Provider struct {
	publicURL     string
	shippingCents int64

	mu       sync.RWMutex
	sessions map[string]*domain.CheckoutSession
	now      func() time.Time
}

// NewProvider creates a mock provider. Success URLs point at publicURL and
// each session is charged shippingCents for delivery.
func NewProvider(publicURL string, shippingCents int64) *Provider {
	return &Provider{
		publicURL:     strings.TrimRight(publicURL, "/"),
		shippingCents: shippingCents,
		sessions:      make(map[string]*domain.CheckoutSession),
		now:           time.Now,
	}
}

func (p *Provider) Name() string {
	return "mock"
}

func (p *Provider) CreateCheckoutSession(_ context.Context, input *payment.SessionInput) (*domain.CheckoutSession, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.InvalidInput("checkout session needs at least one item")
	}

	id := "cs_mock_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	currency := strings.ToLower(input.Currency)

	items := make([]domain.LineItem, 0, len(input.Items))
	for i, it := range input.Items {
		items = append(items, domain.LineItem{
			ID:          fmt.Sprintf("li_mock_%d", i+1),
			ProductID:   it.ProductID,
			Description: it.Name,
			Quantity:    it.Quantity,
			UnitAmount:  it.UnitAmount,
			AmountTotal: it.UnitAmount * it.Quantity,
			Currency:    currency,
		})
	}

	subtotal := input.Subtotal()
	s := &domain.CheckoutSession{
		ID:             id,
		URL:            p.publicURL + "/success?session_id=" + id,
		BasketID:       input.BasketID,
		Status:         domain.SessionStatusComplete,
		PaymentStatus:  domain.PaymentStatusPaid,
		Currency:       currency,
		AmountSubtotal: subtotal,
		AmountTotal:    subtotal + p.shippingCents,
		ShippingAmount: p.shippingCents,
		CustomerName:   "Mock Shopper",
		CustomerEmail:  "shopper@example.com",
		LineItems:      items,
		CreatedAt:      p.now().UTC(),
	}

	p.mu.Lock()
	p.sessions[id] = s
	p.mu.Unlock()

	out := *s
	return &out, nil
}

func (p *Provider) GetCheckoutSession(_ context.Context, sessionID string) (*domain.CheckoutSession, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, apperrors.NotFound("checkout session", sessionID)
	}
	out := *s
	out.LineItems = append([]domain.LineItem(nil), s.LineItems...)
	return &out, nil
}

type mockEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// ParseWebhook accepts Stripe-shaped JSON events. Signatures are not checked.
func (p *Provider) ParseWebhook(payload []byte, _ string) (*payment.WebhookEvent, error) {
	var evt mockEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, apperrors.InvalidInput("malformed webhook payload")
	}
	if evt.Type == "" {
		return nil, apperrors.InvalidInput("webhook event type is required")
	}
	return &payment.WebhookEvent{
		ID:        evt.ID,
		Type:      evt.Type,
		SessionID: evt.Data.Object.ID,
	}, nil
}
