// Package stripepay implements payment.Provider on Stripe Checkout.
package stripepay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	"github.com/SashaVektor/apple-store-clone/internal/payment"
	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
)

const productIDKey = "product_id"

// Config holds the Stripe credentials and checkout page settings.
type Config struct {
	SecretKey     string
	WebhookSecret string

	// PublicURL is the storefront origin used for success and cancel URLs.
	PublicURL        string
	AllowedCountries []string
	// ShippingRate is an optional shipping rate ID (shr_...).
	ShippingRate string

	// BackendURL overrides the Stripe API origin. Empty means api.stripe.com.
	BackendURL string
}

// Provider talks to Stripe through a per-instance client, so several keys
// can coexist in one process.
type Provider struct {
	api    *client.API
	cfg    Config
	logger *slog.Logger
}

// NewProvider creates a Stripe-backed provider.
func NewProvider(cfg Config, logger *slog.Logger) *Provider {
	var backends *stripe.Backends
	if cfg.BackendURL != "" {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(cfg.BackendURL),
			HTTPClient:        &http.Client{Timeout: 10 * time.Second},
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		})
		backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &Provider{api: api, cfg: cfg, logger: logger}
}

func (p *Provider) Name() string {
	return "stripe"
}

func (p *Provider) CreateCheckoutSession(ctx context.Context, input *payment.SessionInput) (*domain.CheckoutSession, error) {
	currency := strings.ToLower(input.Currency)

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Items))
	for _, it := range input.Items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(it.Name),
			Metadata: map[string]string{productIDKey: it.ProductID},
		}
		if it.ImageURL != "" {
			productData.Images = []*string{stripe.String(it.ImageURL)}
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(it.UnitAmount),
				ProductData: productData,
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		ClientReferenceID:  stripe.String(input.BasketID),
		SuccessURL:         stripe.String(p.cfg.PublicURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(p.cfg.PublicURL + "/checkout"),
	}
	if len(p.cfg.AllowedCountries) > 0 {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(p.cfg.AllowedCountries),
		}
	}
	if p.cfg.ShippingRate != "" {
		params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{
			{ShippingRate: stripe.String(p.cfg.ShippingRate)},
		}
	}
	params.AddMetadata("basket_id", input.BasketID)

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, mapError(err, "create checkout session", input.BasketID)
	}

	p.logger.InfoContext(ctx, "stripe checkout session created",
		slog.String("session_id", s.ID),
		slog.String("basket_id", input.BasketID),
		slog.Int64("amount_total", s.AmountTotal),
	)
	return toSession(s), nil
}

func (p *Provider) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	s, err := p.api.CheckoutSessions.Get(sessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, mapError(err, "get checkout session", sessionID)
	}
	out := toSession(s)

	listParams := &stripe.CheckoutSessionListLineItemsParams{Session: stripe.String(sessionID)}
	listParams.Context = ctx
	listParams.AddExpand("data.price.product")

	iter := p.api.CheckoutSessions.ListLineItems(listParams)
	for iter.Next() {
		out.LineItems = append(out.LineItems, toLineItem(iter.LineItem()))
	}
	if err := iter.Err(); err != nil {
		return nil, mapError(err, "list line items", sessionID)
	}
	return out, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (p *Provider) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		p.logger.Warn("rejected stripe webhook", slog.String("error", err.Error()))
		return nil, apperrors.InvalidInput("invalid webhook signature")
	}

	out := &payment.WebhookEvent{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data != nil && len(evt.Data.Raw) > 0 {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(evt.Data.Raw, &obj); err != nil {
			return nil, apperrors.InvalidInput("malformed webhook object")
		}
		out.SessionID = obj.ID
	}
	return out, nil
}

func toSession(s *stripe.CheckoutSession) *domain.CheckoutSession {
	out := &domain.CheckoutSession{
		ID:             s.ID,
		URL:            s.URL,
		BasketID:       s.ClientReferenceID,
		Status:         string(s.Status),
		PaymentStatus:  string(s.PaymentStatus),
		Currency:       string(s.Currency),
		AmountSubtotal: s.AmountSubtotal,
		AmountTotal:    s.AmountTotal,
		CreatedAt:      time.Unix(s.Created, 0).UTC(),
	}
	if out.BasketID == "" && s.Metadata != nil {
		out.BasketID = s.Metadata["basket_id"]
	}
	if s.ShippingCost != nil {
		out.ShippingAmount = s.ShippingCost.AmountTotal
	}
	if s.CustomerDetails != nil {
		out.CustomerName = s.CustomerDetails.Name
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out
}

func toLineItem(li *stripe.LineItem) domain.LineItem {
	out := domain.LineItem{
		ID:          li.ID,
		Description: li.Description,
		Quantity:    li.Quantity,
		AmountTotal: li.AmountTotal,
		Currency:    string(li.Currency),
	}
	if li.Price != nil {
		out.UnitAmount = li.Price.UnitAmount
		if li.Price.Product != nil {
			out.ProductID = li.Price.Product.Metadata[productIDKey]
		}
	}
	if out.UnitAmount == 0 && li.Quantity > 0 {
		out.UnitAmount = li.AmountTotal / li.Quantity
	}
	return out
}

// mapError translates Stripe API errors into AppErrors.
func mapError(err error, op, id string) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return fmt.Errorf("stripe %s: %w", op, err)
	}

	switch {
	case se.HTTPStatusCode == http.StatusNotFound:
		return apperrors.NotFound("checkout session", id)
	case se.HTTPStatusCode == http.StatusTooManyRequests:
		return apperrors.ServiceUnavailable("payment provider is rate limiting requests")
	case se.HTTPStatusCode == http.StatusUnauthorized:
		return fmt.Errorf("stripe %s: credentials rejected: %w", op, err)
	case se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500:
		return apperrors.PaymentFailed(se.Msg)
	default:
		return fmt.Errorf("stripe %s: %w", op, err)
	}
}
