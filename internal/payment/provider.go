package payment

import (
	"context"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
)

// EventCheckoutSessionCompleted is sent once the shopper finishes the hosted
// payment page.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// SessionItem is one basket line priced in minor units.
type SessionItem struct {
	ProductID  string
	Name       string
	ImageURL   string
	UnitAmount int64
	Quantity   int64
}

// SessionInput holds the parameters for opening a hosted checkout session.
type SessionInput struct {
	BasketID string
	Currency string
	Items    []SessionItem
}

// Subtotal is the sum of UnitAmount*Quantity over all items.
func (in *SessionInput) Subtotal() int64 {
	var total int64
	for _, it := range in.Items {
		total += it.UnitAmount * it.Quantity
	}
	return total
}

// WebhookEvent is a verified provider notification.
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
}

// Provider defines the interface for hosted checkout integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "stripe").
	Name() string

	// CreateCheckoutSession opens a hosted payment page for the items.
	CreateCheckoutSession(ctx context.Context, input *SessionInput) (*domain.CheckoutSession, error)

	// GetCheckoutSession returns the session with its line items and
	// customer details.
	GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error)

	// ParseWebhook verifies signature against payload and decodes the event.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
