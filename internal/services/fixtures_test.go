package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/lunajoyas/catalogo/internal/cache"
	"github.com/lunajoyas/catalogo/internal/docstore"
	"github.com/lunajoyas/catalogo/internal/i18n"
	"github.com/lunajoyas/catalogo/internal/models"
	"github.com/lunajoyas/catalogo/internal/repository"
)

type fixture struct {
	repos      *repository.Repositories
	cache      cache.Provider
	catalog    *CatalogService
	storefront *StorefrontService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tr, err := i18n.New("es")
	if err != nil {
		t.Fatalf("i18n.New() error = %v", err)
	}
	cacheProvider, err := cache.NewMemoryProvider(100)
	if err != nil {
		t.Fatalf("NewMemoryProvider() error = %v", err)
	}
	repos := repository.New(docstore.NewMemoryStore())
	storefront, err := NewStorefrontService(StorefrontOptions{
		Repositories:    repos,
		Cache:           cacheProvider,
		Translator:      tr,
		WhatsAppNumber:  "5215512345678",
		InstagramHandle: "@lunajoyas",
		Logger:          discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewStorefrontService() error = %v", err)
	}
	return &fixture{
		repos:      repos,
		cache:      cacheProvider,
		catalog:    NewCatalogService(repos, nil, nil, cacheProvider, discardLogger()),
		storefront: storefront,
	}
}

func ptr(v float64) *float64 {
	return &v
}

func localized(es, en string) models.LocalizedText {
	return models.LocalizedText{"es": es, "en": en}
}

func product(id, es, en string, tier models.PricingType) *models.Product {
	return &models.Product{
		ID:         id,
		Title:      localized(es, en),
		Categories: []string{"rings"},
		Pricing:    &models.ProductPricing{Type: tier},
		Published:  true,
	}
}

// seedCatalog stores a small published catalog through the admin service.
func (f *fixture) seedCatalog(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if _, err := f.catalog.SavePricing(ctx, &models.PricingConfig{S: 10, M: 20, L: 30}); err != nil {
		t.Fatalf("SavePricing() error = %v", err)
	}
	for _, c := range []*models.Category{
		{ID: "rings", Name: localized("Anillos", "Rings"), Order: 2},
		{ID: "necklaces", Name: localized("Collares", "Necklaces"), Order: 1},
	} {
		if _, err := f.catalog.Categories.Create(ctx, c); err != nil {
			t.Fatalf("create category: %v", err)
		}
	}
	if _, err := f.catalog.Tags.Create(ctx, &models.Tag{ID: "silver", Name: localized("Plata", "Silver")}); err != nil {
		t.Fatalf("create tag: %v", err)
	}

	moon := product("moon", "Anillo Luna", "Moon Ring", models.PricingTierM)
	moon.Tags = []string{"silver"}
	moon.Popularity = 5
	moon.Description = localized("Plata con piedra lunar", "Silver with moonstone")
	moon.Images = []string{"https://res.cloudinary.com/demo/image/upload/v1/catalogo/moon.jpg"}

	sun := product("sun", "Collar Sol", "Sun Necklace", models.PricingTierL)
	sun.Categories = []string{"necklaces"}
	sun.Popularity = 9

	star := product("star", "Anillo Estrella", "Star Ring", models.PricingCustom)
	star.Pricing.CustomPrice = ptr(50)
	star.Discount = &models.ProductDiscount{Enabled: true, Percent: 10, Description: "Oferta"}
	star.Popularity = 1

	hidden := product("hidden", "Anillo Oculto", "Hidden Ring", models.PricingTierS)
	hidden.Published = false

	for _, p := range []*models.Product{moon, sun, star, hidden} {
		if _, err := f.catalog.Products.Create(ctx, p); err != nil {
			t.Fatalf("create product %s: %v", p.ID, err)
		}
	}
	if _, err := f.catalog.Collections.Create(ctx, &models.Collection{
		ID: "celestial", Name: localized("Celestial", "Celestial"), ProductIDs: []string{"moon", "sun"}, Published: true,
	}); err != nil {
		t.Fatalf("create collection: %v", err)
	}
}

func ids(products []*models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}
