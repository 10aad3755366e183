package repository

import (
	"context"
	"errors"

	"github.com/lunajoyas/catalogo/internal/docstore"
	"github.com/lunajoyas/catalogo/internal/models"
)

const (
	CollectionProducts       = "products"
	CollectionCategories     = "categories"
	CollectionTags           = "tags"
	CollectionCollections    = "collections"
	CollectionShipping       = "shippingOptions"
	CollectionPaymentMethods = "paymentMethods"
	CollectionSettings       = "settings"

	settingsPricing  = "pricing"
	settingsDiscount = "discount"
)

// Repositories groups every catalog collection behind one store.
type Repositories struct {
	Products        *Collection[models.Product]
	Categories      *Collection[models.Category]
	Tags            *Collection[models.Tag]
	Collections     *Collection[models.Collection]
	ShippingOptions *Collection[models.ShippingOption]
	PaymentMethods  *Collection[models.PaymentMethod]
	Settings        *SettingsStore
}

func New(store docstore.Store) *Repositories {
	return &Repositories{
		Products:        NewCollection[models.Product](store, CollectionProducts),
		Categories:      NewCollection[models.Category](store, CollectionCategories),
		Tags:            NewCollection[models.Tag](store, CollectionTags),
		Collections:     NewCollection[models.Collection](store, CollectionCollections),
		ShippingOptions: NewCollection[models.ShippingOption](store, CollectionShipping),
		PaymentMethods:  NewCollection[models.PaymentMethod](store, CollectionPaymentMethods),
		Settings: &SettingsStore{
			pricing:  NewCollection[models.PricingConfig](store, CollectionSettings),
			discount: NewCollection[models.GlobalDiscount](store, CollectionSettings),
		},
	}
}

// PublishedProducts returns products visible on the storefront.
func (r *Repositories) PublishedProducts(ctx context.Context) ([]*models.Product, error) {
	return r.Products.List(ctx, docstore.Where("published", true))
}

// ProductsInCategory returns every product filed under categoryID.
func (r *Repositories) ProductsInCategory(ctx context.Context, categoryID string) ([]*models.Product, error) {
	return r.Products.List(ctx, docstore.ArrayContains("categories", categoryID))
}

// SettingsStore holds the singleton documents of the settings collection.
type SettingsStore struct {
	pricing  *Collection[models.PricingConfig]
	discount *Collection[models.GlobalDiscount]
}

// Pricing returns the tier table, or a zero table when none was saved yet.
func (s *SettingsStore) Pricing(ctx context.Context) (*models.PricingConfig, error) {
	cfg, err := s.pricing.Get(ctx, settingsPricing)
	if errors.Is(err, ErrNotFound) {
		return &models.PricingConfig{}, nil
	}
	return cfg, err
}

func (s *SettingsStore) SavePricing(ctx context.Context, cfg *models.PricingConfig) (*models.PricingConfig, error) {
	return s.pricing.Put(ctx, settingsPricing, cfg)
}

// Discount returns the global discount, or nil when none was saved yet.
func (s *SettingsStore) Discount(ctx context.Context) (*models.GlobalDiscount, error) {
	d, err := s.discount.Get(ctx, settingsDiscount)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return d, err
}

func (s *SettingsStore) SaveDiscount(ctx context.Context, d *models.GlobalDiscount) (*models.GlobalDiscount, error) {
	return s.discount.Put(ctx, settingsDiscount, d)
}
