package catalog

import (
	"math"

	"github.com/lunajoyas/catalogo/internal/models"
)

// Price is the display price of a product. OriginalPrice is set only when a
// discount was applied and holds the pre-discount base.
type Price struct {
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
}

// Discounted reports whether a discount was applied.
func (p Price) Discounted() bool {
	return p.OriginalPrice != nil
}

type Pricer struct{}

func NewPricer() *Pricer {
	return &Pricer{}
}

// Resolve computes the effective price of product. pricing and discount may
// be nil. Missing or non-finite amounts resolve to zero.
func (p *Pricer) Resolve(product *models.Product, pricing *models.PricingConfig, discount *models.GlobalDiscount) Price {
	base := p.BasePrice(product, pricing)
	percent := p.DiscountPercent(product, discount)
	if percent <= 0 {
		return Price{Price: base}
	}

	original := base
	return Price{
		Price:         math.Max(0, base*(1-percent/100)),
		OriginalPrice: &original,
	}
}

// BasePrice returns the undiscounted price: the custom amount, the tier
// price, or the legacy flat price when no pricing reference exists.
func (p *Pricer) BasePrice(product *models.Product, pricing *models.PricingConfig) float64 {
	if product == nil {
		return 0
	}

	var base float64
	switch {
	case product.Pricing != nil && product.Pricing.Type == models.PricingCustom:
		if product.Pricing.CustomPrice != nil {
			base = finiteOrZero(*product.Pricing.CustomPrice)
		}
	case product.Pricing != nil:
		if tier, ok := pricing.TierPrice(product.Pricing.Type); ok {
			base = finiteOrZero(tier)
		}
	case product.Price != nil:
		base = finiteOrZero(*product.Price)
	}
	return math.Max(0, base)
}

// DiscountPercent returns the percent to apply. An enabled product discount
// wins over the global discount.
func (p *Pricer) DiscountPercent(product *models.Product, discount *models.GlobalDiscount) float64 {
	if product != nil && product.Discount != nil && product.Discount.Enabled {
		if percent := finiteOrZero(product.Discount.Percent); percent > 0 {
			return math.Min(percent, 100)
		}
	}
	if discount != nil && discount.Active {
		if percent := finiteOrZero(discount.Percent); percent > 0 {
			return math.Min(percent, 100)
		}
	}
	return 0
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
