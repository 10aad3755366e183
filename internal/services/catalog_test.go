package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/lunajoyas/catalogo/internal/cache"
	"github.com/lunajoyas/catalogo/internal/catalog"
	"github.com/lunajoyas/catalogo/internal/models"
)

func TestResourceCRUD(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	created, err := f.catalog.Tags.Create(ctx, &models.Tag{Name: localized("Oro", "Gold")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	created.Name = localized("Oro rosa", "Rose gold")
	updated, err := f.catalog.Tags.Update(ctx, created.ID, created)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name.In("en") != "Rose gold" {
		t.Fatalf("updated name = %v", updated.Name)
	}

	if err := f.catalog.Tags.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := f.catalog.Tags.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := f.catalog.Tags.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete() missing error = %v, want ErrNotFound", err)
	}
	if _, err := f.catalog.Tags.Update(ctx, "missing", created); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update() missing error = %v, want ErrNotFound", err)
	}
}

func TestResourceCreateRejects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		product *models.Product
		check   func(error) bool
	}{
		{
			name:    "nil body",
			product: nil,
			check:   func(err error) bool { return errors.Is(err, ErrInvalidInput) },
		},
		{
			name:    "missing english title",
			product: &models.Product{Title: models.LocalizedText{"es": "Anillo"}, Categories: []string{"rings"}, Price: ptr(10)},
			check: func(err error) bool {
				var verr *catalog.ValidationError
				return errors.As(err, &verr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := f.catalog.Products.Create(ctx, tt.product)
			if err == nil || !tt.check(err) {
				t.Fatalf("Create() error = %v", err)
			}
		})
	}
}

func TestResourceCreateDuplicateID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	tag := &models.Tag{ID: "gold", Name: localized("Oro", "Gold")}
	if _, err := f.catalog.Tags.Create(ctx, tag); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.catalog.Tags.Create(ctx, tag); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Create() duplicate error = %v, want ErrInvalidInput", err)
	}
}

func TestResourceConcurrentCreateSameID(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	const writers = 6
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.catalog.Tags.Create(ctx, &models.Tag{
				ID:   "gold",
				Name: localized(fmt.Sprintf("Oro %d", i), fmt.Sprintf("Gold %d", i)),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, ErrInvalidInput):
			t.Fatalf("Create() error = %v, want ErrInvalidInput", err)
		}
	}
	if created != 1 {
		t.Fatalf("created %d tags with the same id, want 1", created)
	}
}

func TestWritesInvalidateStorefrontCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedCatalog(t)

	if _, err := f.storefront.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if _, err := f.cache.Get(ctx, cache.StorefrontKey()); err != nil {
		t.Fatalf("expected cached snapshot, got %v", err)
	}

	if _, err := f.catalog.SaveDiscount(ctx, &models.GlobalDiscount{Active: true, Percent: 15, Title: localized("Rebajas", "Sale")}); err != nil {
		t.Fatalf("SaveDiscount() error = %v", err)
	}
	if _, err := f.cache.Get(ctx, cache.StorefrontKey()); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected cache to be invalidated, got %v", err)
	}

	promo, err := f.storefront.Promotion(ctx, "en")
	if err != nil {
		t.Fatalf("Promotion() error = %v", err)
	}
	if promo == nil || promo.Percent != 15 || promo.Title != "Sale" {
		t.Fatalf("promotion = %+v", promo)
	}
}

func TestSettingsDefaults(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	discount, err := f.catalog.Discount(ctx)
	if err != nil {
		t.Fatalf("Discount() error = %v", err)
	}
	if discount.Active {
		t.Fatalf("expected inactive default discount, got %+v", discount)
	}

	if _, err := f.catalog.SaveDiscount(ctx, &models.GlobalDiscount{Active: true, Percent: 10}); err == nil {
		t.Fatal("expected active discount without title to be rejected")
	}
	if _, err := f.catalog.SavePricing(ctx, &models.PricingConfig{S: -1}); err == nil {
		t.Fatal("expected negative tier price to be rejected")
	}
}

const seedYAML = `
pricing:
  S: 10
  M: 20
  L: 30
categories:
  - id: rings
    name: {es: Anillos, en: Rings}
tags:
  - id: silver
    name: {es: Plata, en: Silver}
paymentMethods:
  - id: transfer
    name: {es: Transferencia, en: Bank transfer}
    active: true
products:
  - id: moon
    title: {es: Anillo Luna, en: Moon Ring}
    categories: [rings]
    tags: [silver]
    pricing: {type: M}
    published: true
  - id: star
    title: {es: Anillo Estrella, en: Star Ring}
    categories: [rings]
    pricing: {type: custom, customPrice: 50}
    published: true
`

func TestImport(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	result, err := f.catalog.Import(ctx, []byte(seedYAML))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Products != 2 || result.Categories != 1 || result.Tags != 1 || result.PaymentMethods != 1 || !result.Pricing || result.Discount {
		t.Fatalf("result = %+v", result)
	}

	// Importing twice upserts by id.
	if _, err := f.catalog.Import(ctx, []byte(seedYAML)); err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	products, err := f.catalog.Products.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products = %d, want 2", len(products))
	}
}

func TestImportRejectsInvalidSeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "products: [\n"},
		{name: "unknown category", content: `
categories:
  - id: rings
    name: {es: Anillos, en: Rings}
products:
  - id: moon
    title: {es: Luna, en: Moon}
    categories: [bracelets]
    price: 10
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			ctx := context.Background()
			if _, err := f.catalog.Import(ctx, []byte(tt.content)); err == nil {
				t.Fatal("expected import error")
			}
			products, err := f.catalog.Products.List(ctx)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(products) != 0 {
				t.Fatalf("expected nothing written, got %d products", len(products))
			}
		})
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedCatalog(t)
	ctx := context.Background()

	err := f.catalog.Categories.Delete(ctx, "necklaces")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Delete() error = %v, want ErrInvalidInput", err)
	}
	if _, err := f.catalog.Categories.Get(ctx, "necklaces"); err != nil {
		t.Fatalf("expected category to survive, got %v", err)
	}

	if err := f.catalog.Products.Delete(ctx, "sun"); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if err := f.catalog.Categories.Delete(ctx, "necklaces"); err != nil {
		t.Fatalf("Delete() after unlinking error = %v", err)
	}
}
