package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SashaVektor/apple-store-clone/internal/domain"
	"github.com/SashaVektor/apple-store-clone/internal/repository"
	apperrors "github.com/SashaVektor/apple-store-clone/pkg/errors"
	"github.com/SashaVektor/apple-store-clone/pkg/logger"
	"github.com/SashaVektor/apple-store-clone/pkg/slug"
)

const (
	productsCacheKey   = "products"
	categoriesCacheKey = "categories"
	productCachePrefix = "product:"
)

// CatalogService serves CMS content through a read-through cache that keeps
// a stale copy for CMS outages.
type CatalogService struct {
	source CatalogSource
	cache  repository.CatalogCache
	logger *slog.Logger
}

// NewCatalogService creates a catalog service. cache may be nil.
func NewCatalogService(source CatalogSource, cache repository.CatalogCache, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		source: source,
		cache:  cache,
		logger: logger,
	}
}

// ListProducts returns products oldest first. A non-empty categoryKey
// restricts the list to the category with that ID or slug.
func (s *CatalogService) ListProducts(ctx context.Context, categoryKey string) ([]domain.Product, error) {
	products, err := readThrough(ctx, s, productsCacheKey, s.source.ListProducts)
	if err != nil {
		return nil, err
	}
	if categoryKey == "" {
		return products, nil
	}

	category, err := s.findCategory(ctx, categoryKey)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.CategoryID == category.ID {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// GetProduct looks a product up by CMS document ID or slug.
func (s *CatalogService) GetProduct(ctx context.Context, key string) (*domain.Product, error) {
	if key == "" {
		return nil, apperrors.InvalidInput("product id or slug is required")
	}
	return readThrough(ctx, s, productCachePrefix+key, func(ctx context.Context) (*domain.Product, error) {
		return s.source.GetProduct(ctx, key)
	})
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return readThrough(ctx, s, categoriesCacheKey, s.source.ListCategories)
}

func (s *CatalogService) findCategory(ctx context.Context, key string) (*domain.Category, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	normalized := slug.Generate(key)
	for i := range categories {
		c := categories[i]
		if c.Matches(key) || c.Matches(normalized) || slug.Generate(c.Title) == normalized {
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("category", key)
}

func (s *CatalogService) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, s.logger)
}

// readThrough serves a fresh cache entry, otherwise asks the CMS. When the
// CMS fails it falls back to the stale copy if there is one.
func readThrough[T any](ctx context.Context, s *CatalogService, key string, fetch func(context.Context) (T, error)) (T, error) {
	var (
		cached T
		state  = repository.CacheMiss
	)
	if s.cache != nil {
		var err error
		state, err = s.cache.Load(ctx, key, &cached)
		if err != nil {
			s.log(ctx).WarnContext(ctx, "catalog cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			state = repository.CacheMiss
		}
	}
	if state == repository.CacheFresh {
		catalogCacheResults.WithLabelValues("fresh").Inc()
		return cached, nil
	}

	value, err := fetch(ctx)
	if err == nil {
		catalogCacheResults.WithLabelValues("miss").Inc()
		if s.cache != nil {
			if storeErr := s.cache.Store(ctx, key, value); storeErr != nil {
				s.log(ctx).WarnContext(ctx, "catalog cache write failed",
					slog.String("key", key),
					slog.String("error", storeErr.Error()),
				)
			}
		}
		return value, nil
	}

	var zero T
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidInput) {
		return zero, err
	}

	if state == repository.CacheStale {
		catalogCacheResults.WithLabelValues("stale_fallback").Inc()
		s.log(ctx).WarnContext(ctx, "cms unavailable, serving stale catalog",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return cached, nil
	}

	s.log(ctx).ErrorContext(ctx, "cms unavailable and no cached catalog",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	return zero, apperrors.ServiceUnavailable("product catalog is temporarily unavailable")
}
