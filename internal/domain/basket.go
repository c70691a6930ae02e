package domain

import (
	"errors"
	"time"
)

// DefaultCurrency is the only currency the storefront sells in.
const DefaultCurrency = "USD"

const (
	MaxQuantityPerLine = 10
	MaxBasketLines     = 50
)

var (
	ErrQuantityLimit = errors.New("quantity per product exceeds limit")
	ErrBasketFull    = errors.New("basket has too many distinct products")
	ErrBadQuantity   = errors.New("quantity must be positive")
)

// Basket holds one shopper's selected products. It is keyed by an opaque
// client-generated ID rather than a user account.
type Basket struct {
	ID        string       `json:"id"`
	Items     []BasketItem `json:"items"`
	Currency  string       `json:"currency"`
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// BasketItem is one product line. Title, price and image are copied from
// the catalog when the line is added.
type BasketItem struct {
	ProductID  string `json:"product_id"`
	Title      string `json:"title"`
	PriceCents int64  `json:"price_cents"`
	ImageURL   string `json:"image_url,omitempty"`
	Quantity   int    `json:"quantity"`
}

// NewBasket returns an empty, unsaved basket.
func NewBasket(id string, now time.Time) *Basket {
	return &Basket{
		ID:        id,
		Items:     []BasketItem{},
		Currency:  DefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Total is the sum of price times quantity over all lines, in cents.
func (b *Basket) Total() int64 {
	var total int64
	for _, item := range b.Items {
		total += item.PriceCents * int64(item.Quantity)
	}
	return total
}

// ItemCount is the number of units in the basket.
func (b *Basket) ItemCount() int {
	var count int
	for _, item := range b.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the basket has no units.
func (b *Basket) IsEmpty() bool {
	return b.ItemCount() == 0
}

// FindItemIndex returns the index of productID's line, or -1.
func (b *Basket) FindItemIndex(productID string) int {
	for i := range b.Items {
		if b.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts qty units of p into the basket, merging with an existing line.
// The line's price is refreshed from p.
func (b *Basket) Add(p *Product, qty int) error {
	if qty < 1 {
		return ErrBadQuantity
	}

	if idx := b.FindItemIndex(p.ID); idx >= 0 {
		line := &b.Items[idx]
		if line.Quantity+qty > MaxQuantityPerLine {
			return ErrQuantityLimit
		}
		line.Quantity += qty
		line.PriceCents = p.PriceCents
		line.Title = p.Title
		line.ImageURL = p.PrimaryImageURL()
		return nil
	}

	if qty > MaxQuantityPerLine {
		return ErrQuantityLimit
	}
	if len(b.Items) >= MaxBasketLines {
		return ErrBasketFull
	}
	b.Items = append(b.Items, BasketItem{
		ProductID:  p.ID,
		Title:      p.Title,
		PriceCents: p.PriceCents,
		ImageURL:   p.PrimaryImageURL(),
		Quantity:   qty,
	})
	return nil
}

// RemoveOne takes one unit of productID out of the basket and drops the
// line when it reaches zero. It returns false if the product is absent.
func (b *Basket) RemoveOne(productID string) bool {
	idx := b.FindItemIndex(productID)
	if idx < 0 {
		return false
	}
	b.Items[idx].Quantity--
	if b.Items[idx].Quantity <= 0 {
		b.Items = append(b.Items[:idx], b.Items[idx+1:]...)
	}
	return true
}
