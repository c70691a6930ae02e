package domain

import (
	"strings"
	"time"
)

const (
	OrderStatusPaid = "paid"
	// OrderStatusPending is shown on the confirmation page before the
	// provider reports payment.
	OrderStatusPending = "pending"
)

// Order is a paid checkout session, stored once per session.
type Order struct {
	ID                string     `json:"id"`
	CheckoutSessionID string     `json:"checkout_session_id"`
	BasketID          string     `json:"basket_id,omitempty"`
	CustomerName      string     `json:"customer_name"`
	CustomerEmail     string     `json:"customer_email"`
	Status            string     `json:"status"`
	Items             []LineItem `json:"items"`
	SubtotalAmount    int64      `json:"subtotal_amount"`
	ShippingAmount    int64      `json:"shipping_amount"`
	TotalAmount       int64      `json:"total_amount"`
	Currency          string     `json:"currency"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Number is the short order number shown to shoppers: the last five
// characters of the checkout session ID.
func (o *Order) Number() string {
	return ShortNumber(o.CheckoutSessionID)
}

// Greeting is the customer's first name, or "Guest".
func (o *Order) Greeting() string {
	return FirstNameOrGuest(o.CustomerName)
}

// ShortNumber returns the last five characters of sessionID.
func ShortNumber(sessionID string) string {
	if len(sessionID) <= 5 {
		return sessionID
	}
	return sessionID[len(sessionID)-5:]
}

// FirstNameOrGuest returns the first word of name, or "Guest" when empty.
func FirstNameOrGuest(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "Guest"
	}
	return fields[0]
}

// OrderConfirmation is the summary rendered after a successful payment.
type OrderConfirmation struct {
	SessionID      string     `json:"session_id"`
	OrderNumber    string     `json:"order_number"`
	Greeting       string     `json:"greeting"`
	CustomerEmail  string     `json:"customer_email,omitempty"`
	Status         string     `json:"status"`
	Items          []LineItem `json:"items"`
	SubtotalAmount int64      `json:"subtotal_amount"`
	ShippingAmount int64      `json:"shipping_amount"`
	TotalAmount    int64      `json:"total_amount"`
	Currency       string     `json:"currency"`
}
