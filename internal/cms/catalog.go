package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
)

const (
	productsQuery = `*[_type == "product"] {
  _id,
  ...
} | order(_createdAt asc)`

	categoriesQuery = `*[_type == "category"] {
  _id,
  ...
} | order(title asc)`

	productByKeyQuery = `*[_type == "product" && (_id == $key || slug.current == $key)][0]`
)

type sanityRef struct {
	Ref string `json:"_ref"`
}

type sanitySlug struct {
	Current string `json:"current"`
}

type sanityImage struct {
	Asset sanityRef `json:"asset"`
}

type sanityProduct struct {
	ID          string          `json:"_id"`
	CreatedAt   time.Time       `json:"_createdAt"`
	UpdatedAt   time.Time       `json:"_updatedAt"`
	Title       string          `json:"title"`
	Slug        sanitySlug      `json:"slug"`
	Price       decimal.Decimal `json:"price"`
	Description json.RawMessage `json:"description"`
	Category    *sanityRef      `json:"category"`
	Image       []sanityImage   `json:"image"`
}

type sanityCategory struct {
	ID    string     `json:"_id"`
	Title string     `json:"title"`
	Slug  sanitySlug `json:"slug"`
}

// ListProducts returns every product, oldest first.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var docs []sanityProduct
	if err := c.Query(ctx, productsQuery, nil, &docs); err != nil {
		if errors.Is(err, errNoResult) {
			return []domain.Product{}, nil
		}
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for i := range docs {
		p, err := c.toProduct(&docs[i])
		if err != nil {
			// One broken document should not hide the whole catalog.
			c.logger.WarnContext(ctx, "skipping malformed product",
				slog.String("product_id", docs[i].ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		products = append(products, *p)
	}
	return products, nil
}

// GetProduct looks a product up by document ID or slug.
func (c *Client) GetProduct(ctx context.Context, key string) (*domain.Product, error) {
	var doc sanityProduct
	err := c.Query(ctx, productByKeyQuery, map[string]any{"key": key}, &doc)
	if errors.Is(err, errNoResult) {
		return nil, apperrors.NotFound("product", key)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", key, err)
	}
	return c.toProduct(&doc)
}

// ListCategories returns every category ordered by title.
func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var docs []sanityCategory
	if err := c.Query(ctx, categoriesQuery, nil, &docs); err != nil {
		if errors.Is(err, errNoResult) {
			return []domain.Category{}, nil
		}
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]domain.Category, 0, len(docs))
	for _, d := range docs {
		categories = append(categories, domain.Category{ID: d.ID, Title: d.Title, Slug: d.Slug.Current})
	}
	return categories, nil
}

func (c *Client) toProduct(doc *sanityProduct) (*domain.Product, error) {
	cents, err := PriceToCents(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", doc.ID, err)
	}

	images := make([]domain.Image, 0, len(doc.Image))
	for _, img := range doc.Image {
		u, err := ImageURL(c.cfg.ProjectID, c.cfg.Dataset, img.Asset.Ref, ImageOptions{})
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", doc.ID, err)
		}
		images = append(images, domain.Image{AssetRef: img.Asset.Ref, URL: u})
	}

	p := &domain.Product{
		ID:          doc.ID,
		Title:       doc.Title,
		Slug:        doc.Slug.Current,
		Description: PlainText(doc.Description),
		PriceCents:  cents,
		Currency:    domain.DefaultCurrency,
		Images:      images,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	if doc.Category != nil {
		p.CategoryID = doc.Category.Ref
	}
	return p, nil
}
