package domain

import "time"

// Product is a catalog entry as published in the CMS. Prices are in cents.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	CategoryID  string    `json:"category_id,omitempty"`
	Images      []Image   `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Image is a CMS asset reference with its resolved CDN URL.
type Image struct {
	AssetRef string `json:"asset_ref"`
	URL      string `json:"url"`
}

// PrimaryImageURL returns the first image URL, or "" when there is none.
func (p *Product) PrimaryImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// Category groups products in the storefront navigation.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Matches reports whether key is the category's ID or slug.
func (c Category) Matches(key string) bool {
	return key != "" && (c.ID == key || c.Slug == key)
}
