package catalog

import (
	"math"
	"testing"

	"github.com/lunajoyas/catalogo/internal/models"
)

func ptr(v float64) *float64 {
	return &v
}

func TestPricer_Resolve(t *testing.T) {
	t.Parallel()

	pricing := &models.PricingConfig{S: 10, M: 20, L: 30}
	global := &models.GlobalDiscount{Active: true, Percent: 20}

	tests := []struct {
		name         string
		product      *models.Product
		pricing      *models.PricingConfig
		discount     *models.GlobalDiscount
		wantPrice    float64
		wantOriginal *float64
	}{
		{
			name:      "tier without discount",
			product:   &models.Product{Pricing: &models.ProductPricing{Type: models.PricingTierM}},
			pricing:   pricing,
			wantPrice: 20,
		},
		{
			name: "custom price with product discount",
			product: &models.Product{
				Pricing:  &models.ProductPricing{Type: models.PricingCustom, CustomPrice: ptr(50)},
				Discount: &models.ProductDiscount{Enabled: true, Percent: 10},
			},
			pricing:      pricing,
			wantPrice:    45,
			wantOriginal: ptr(50),
		},
		{
			name: "product discount wins over global",
			product: &models.Product{
				Pricing:  &models.ProductPricing{Type: models.PricingTierL},
				Discount: &models.ProductDiscount{Enabled: true, Percent: 50},
			},
			pricing:      pricing,
			discount:     global,
			wantPrice:    15,
			wantOriginal: ptr(30),
		},
		{
			name:         "global discount applies without product discount",
			product:      &models.Product{Pricing: &models.ProductPricing{Type: models.PricingTierS}},
			pricing:      pricing,
			discount:     global,
			wantPrice:    8,
			wantOriginal: ptr(10),
		},
		{
			name: "disabled product discount falls back to global",
			product: &models.Product{
				Pricing:  &models.ProductPricing{Type: models.PricingTierS},
				Discount: &models.ProductDiscount{Enabled: false, Percent: 90},
			},
			pricing:      pricing,
			discount:     global,
			wantPrice:    8,
			wantOriginal: ptr(10),
		},
		{
			name:      "inactive global discount is ignored",
			product:   &models.Product{Pricing: &models.ProductPricing{Type: models.PricingTierS}},
			pricing:   pricing,
			discount:  &models.GlobalDiscount{Active: false, Percent: 20},
			wantPrice: 10,
		},
		{
			name:      "missing pricing config resolves to zero",
			product:   &models.Product{Pricing: &models.ProductPricing{Type: models.PricingTierM}},
			wantPrice: 0,
		},
		{
			name:      "custom without amount resolves to zero",
			product:   &models.Product{Pricing: &models.ProductPricing{Type: models.PricingCustom}},
			pricing:   pricing,
			wantPrice: 0,
		},
		{
			name:      "non-finite custom amount resolves to zero",
			product:   &models.Product{Pricing: &models.ProductPricing{Type: models.PricingCustom, CustomPrice: ptr(math.Inf(1))}},
			pricing:   pricing,
			wantPrice: 0,
		},
		{
			name:      "legacy flat price",
			product:   &models.Product{Price: ptr(12.5)},
			pricing:   pricing,
			wantPrice: 12.5,
		},
		{
			name:      "nil product",
			wantPrice: 0,
		},
		{
			name: "percent above 100 clamps to zero",
			product: &models.Product{
				Pricing:  &models.ProductPricing{Type: models.PricingTierL},
				Discount: &models.ProductDiscount{Enabled: true, Percent: 150},
			},
			pricing:      pricing,
			wantPrice:    0,
			wantOriginal: ptr(30),
		},
	}

	pricer := NewPricer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := pricer.Resolve(tt.product, tt.pricing, tt.discount)
			if math.Abs(got.Price-tt.wantPrice) > 1e-9 {
				t.Fatalf("expected price %v, got %v", tt.wantPrice, got.Price)
			}
			switch {
			case tt.wantOriginal == nil && got.OriginalPrice != nil:
				t.Fatalf("expected no original price, got %v", *got.OriginalPrice)
			case tt.wantOriginal != nil && got.OriginalPrice == nil:
				t.Fatalf("expected original price %v, got none", *tt.wantOriginal)
			case tt.wantOriginal != nil && *got.OriginalPrice != *tt.wantOriginal:
				t.Fatalf("expected original price %v, got %v", *tt.wantOriginal, *got.OriginalPrice)
			}
		})
	}
}

func TestPricer_ProductDiscountIndependentOfGlobal(t *testing.T) {
	t.Parallel()

	pricer := NewPricer()
	pricing := &models.PricingConfig{S: 10, M: 20, L: 30}
	product := &models.Product{
		Pricing:  &models.ProductPricing{Type: models.PricingTierM},
		Discount: &models.ProductDiscount{Enabled: true, Percent: 25},
	}

	globals := []*models.GlobalDiscount{
		nil,
		{Active: false, Percent: 40},
		{Active: true, Percent: 40},
		{Active: true, Percent: 0},
	}
	for _, global := range globals {
		got := pricer.Resolve(product, pricing, global)
		if got.OriginalPrice == nil || *got.OriginalPrice != 20 {
			t.Fatalf("expected original price 20 with global %+v, got %+v", global, got)
		}
		if got.Price != 15 {
			t.Fatalf("expected price 15 with global %+v, got %v", global, got.Price)
		}
	}
}
