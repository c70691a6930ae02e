package domain

import "time"

// Checkout session states as reported by the payment provider.
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"

	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

// CheckoutSession is the provider's record of an intended purchase. Amounts
// are in the currency's minor unit.
type CheckoutSession struct {
	ID             string     `json:"id"`
	URL            string     `json:"url,omitempty"`
	BasketID       string     `json:"basket_id,omitempty"`
	Status         string     `json:"status"`
	PaymentStatus  string     `json:"payment_status"`
	Currency       string     `json:"currency"`
	AmountSubtotal int64      `json:"amount_subtotal"`
	AmountTotal    int64      `json:"amount_total"`
	ShippingAmount int64      `json:"shipping_amount"`
	CustomerName   string     `json:"customer_name,omitempty"`
	CustomerEmail  string     `json:"customer_email,omitempty"`
	LineItems      []LineItem `json:"line_items,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsPaid reports whether money has been collected for the session.
func (s *CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// LineItem is one purchased product attached to a checkout session.
type LineItem struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id,omitempty"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
	AmountTotal int64  `json:"amount_total"`
	Currency    string `json:"currency"`
}

// CheckoutRedirect is what the client needs to send the shopper to the
// hosted payment page.
type CheckoutRedirect struct {
	SessionID string `json:"id"`
	URL       string `json:"url"`
}
