package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/lunajoyas/catalogo/internal/cache"
	"github.com/lunajoyas/catalogo/internal/catalog"
	"github.com/lunajoyas/catalogo/internal/logging"
	"github.com/lunajoyas/catalogo/internal/models"
	"github.com/lunajoyas/catalogo/internal/observability"
	"github.com/lunajoyas/catalogo/internal/repository"
)

// ImportResult counts what a seed import wrote.
type ImportResult struct {
	Categories      int  `json:"categories"`
	Tags            int  `json:"tags"`
	Collections     int  `json:"collections"`
	ShippingOptions int  `json:"shippingOptions"`
	PaymentMethods  int  `json:"paymentMethods"`
	Products        int  `json:"products"`
	Pricing         bool `json:"pricing"`
	Discount        bool `json:"discount"`
}

// CatalogService is the admin side of the catalog: validated writes,
// settings and seed imports.
type CatalogService struct {
	Products        *Resource[models.Product]
	Categories      *Resource[models.Category]
	Tags            *Resource[models.Tag]
	Collections     *Resource[models.Collection]
	ShippingOptions *Resource[models.ShippingOption]
	PaymentMethods  *Resource[models.PaymentMethod]

	repos     *repository.Repositories
	validator *catalog.Validator
	parser    *catalog.Parser
	cache     cache.Provider
	logger    *slog.Logger
}

func NewCatalogService(
	repos *repository.Repositories,
	validator *catalog.Validator,
	parser *catalog.Parser,
	cacheProvider cache.Provider,
	logger *slog.Logger,
) *CatalogService {
	if validator == nil {
		validator = catalog.NewValidator()
	}
	if parser == nil {
		parser = catalog.NewParser()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &CatalogService{
		repos:     repos,
		validator: validator,
		parser:    parser,
		cache:     cacheProvider,
		logger:    logger.With("component", "catalog_service"),
	}
	s.Products = newResource("products", repos.Products, validator.ValidateProduct,
		func(p *models.Product) string { return p.ID }, s.invalidate, s.logger)
	s.Categories = newResource("categories", repos.Categories, validator.ValidateCategory,
		func(c *models.Category) string { return c.ID }, s.invalidate, s.logger)
	s.Categories.beforeDelete = s.categoryInUse
	s.Tags = newResource("tags", repos.Tags, validator.ValidateTag,
		func(t *models.Tag) string { return t.ID }, s.invalidate, s.logger)
	s.Collections = newResource("collections", repos.Collections, validator.ValidateCollection,
		func(c *models.Collection) string { return c.ID }, s.invalidate, s.logger)
	s.ShippingOptions = newResource("shipping-options", repos.ShippingOptions, validator.ValidateShippingOption,
		func(o *models.ShippingOption) string { return o.ID }, s.invalidate, s.logger)
	s.PaymentMethods = newResource("payment-methods", repos.PaymentMethods, validator.ValidatePaymentMethod,
		func(m *models.PaymentMethod) string { return m.ID }, s.invalidate, s.logger)
	return s
}

// categoryInUse refuses to delete a category that products still list.
func (s *CatalogService) categoryInUse(ctx context.Context, id string) error {
	products, err := s.repos.ProductsInCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if len(products) > 0 {
		return UserError{Message: fmt.Sprintf("category %q is used by %d products", id, len(products))}
	}
	return nil
}

func (s *CatalogService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *CatalogService) Pricing(ctx context.Context) (*models.PricingConfig, error) {
	pricing, err := s.repos.Settings.Pricing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing: %w", err)
	}
	return pricing, nil
}

func (s *CatalogService) SavePricing(ctx context.Context, pricing *models.PricingConfig) (*models.PricingConfig, error) {
	if pricing == nil {
		return nil, UserError{Message: "pricing body is required"}
	}
	if err := s.validator.ValidatePricing(pricing); err != nil {
		return nil, err
	}
	saved, err := s.repos.Settings.SavePricing(ctx, pricing)
	if err != nil {
		return nil, fmt.Errorf("failed to save pricing: %w", err)
	}
	s.loggerFromContext(ctx).InfoContext(ctx, "pricing updated", "S", saved.S, "M", saved.M, "L", saved.L)
	s.invalidate(ctx)
	return saved, nil
}

// Discount returns the global discount, or an inactive one when none was
// saved yet.
func (s *CatalogService) Discount(ctx context.Context) (*models.GlobalDiscount, error) {
	discount, err := s.repos.Settings.Discount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load discount: %w", err)
	}
	if discount == nil {
		discount = &models.GlobalDiscount{}
	}
	return discount, nil
}

func (s *CatalogService) SaveDiscount(ctx context.Context, discount *models.GlobalDiscount) (*models.GlobalDiscount, error) {
	if discount == nil {
		return nil, UserError{Message: "discount body is required"}
	}
	if err := s.validator.ValidateDiscount(discount); err != nil {
		return nil, err
	}
	saved, err := s.repos.Settings.SaveDiscount(ctx, discount)
	if err != nil {
		return nil, fmt.Errorf("failed to save discount: %w", err)
	}
	s.loggerFromContext(ctx).InfoContext(ctx, "discount updated", "active", saved.Active, "percent", saved.Percent)
	s.invalidate(ctx)
	return saved, nil
}

// Import parses a YAML seed, validates all of it and then upserts every
// entity by id. Nothing is written when validation fails.
func (s *CatalogService) Import(ctx context.Context, content []byte) (result *ImportResult, err error) {
	span := sentry.StartSpan(
		ctx,
		"service.catalog.import",
		sentry.WithOpName("service.catalog"),
		sentry.WithDescription("Import"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)
	meter.Count("catalog.import.received", 1)
	defer func() {
		if err != nil {
			meter.Count("catalog.import.failed", 1)
			span.Status = sentry.SpanStatusInternalError
			return
		}
		meter.Count("catalog.import.processed", 1, sentry.WithAttributes(
			attribute.Int("products", result.Products),
		))
		span.Status = sentry.SpanStatusOK
	}()

	seed, err := s.parser.Parse(content)
	if err != nil {
		return nil, UserError{Message: err.Error()}
	}
	if err := s.validator.ValidateSeed(seed); err != nil {
		return nil, err
	}

	result = &ImportResult{}
	if seed.Pricing != nil {
		if _, err := s.repos.Settings.SavePricing(ctx, seed.Pricing); err != nil {
			return nil, fmt.Errorf("failed to import pricing: %w", err)
		}
		result.Pricing = true
	}
	if seed.Discount != nil {
		if _, err := s.repos.Settings.SaveDiscount(ctx, seed.Discount); err != nil {
			return nil, fmt.Errorf("failed to import discount: %w", err)
		}
		result.Discount = true
	}

	if result.Categories, err = importAll(ctx, s.repos.Categories, seed.Categories, func(c *models.Category) string { return c.ID }); err != nil {
		return nil, err
	}
	if result.Tags, err = importAll(ctx, s.repos.Tags, seed.Tags, func(t *models.Tag) string { return t.ID }); err != nil {
		return nil, err
	}
	if result.Collections, err = importAll(ctx, s.repos.Collections, seed.Collections, func(c *models.Collection) string { return c.ID }); err != nil {
		return nil, err
	}
	if result.ShippingOptions, err = importAll(ctx, s.repos.ShippingOptions, seed.ShippingOptions, func(o *models.ShippingOption) string { return o.ID }); err != nil {
		return nil, err
	}
	if result.PaymentMethods, err = importAll(ctx, s.repos.PaymentMethods, seed.PaymentMethods, func(m *models.PaymentMethod) string { return m.ID }); err != nil {
		return nil, err
	}
	if result.Products, err = importAll(ctx, s.repos.Products, seed.Products, func(p *models.Product) string { return p.ID }); err != nil {
		return nil, err
	}

	span.SetData("catalog.products", result.Products)
	s.loggerFromContext(ctx).InfoContext(ctx, "catalog imported",
		"products", result.Products,
		"categories", result.Categories,
		"tags", result.Tags,
		"collections", result.Collections,
	)
	s.invalidate(ctx)
	return result, nil
}

func importAll[T any](ctx context.Context, coll *repository.Collection[T], items []T, idOf func(*T) string) (int, error) {
	for i := range items {
		item := &items[i]
		var err error
		if id := idOf(item); id != "" {
			_, err = coll.Put(ctx, id, item)
		} else {
			_, err = coll.Create(ctx, item)
		}
		if err != nil {
			return i, fmt.Errorf("failed to import %s[%d]: %w", coll.Name(), i, err)
		}
	}
	return len(items), nil
}

// invalidate drops the cached storefront snapshot after a write.
func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.StorefrontKey()); err != nil {
		s.loggerFromContext(ctx).WarnContext(ctx, "failed to invalidate storefront cache", "error", err)
	}
}
