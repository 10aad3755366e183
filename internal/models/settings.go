package models

import "time"

// PricingConfig is the global tier price table.
type PricingConfig struct {
	S         float64   `json:"S" yaml:"S" validate:"gte=0"`
	M         float64   `json:"M" yaml:"M" validate:"gte=0"`
	L         float64   `json:"L" yaml:"L" validate:"gte=0"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"-"`
}

// TierPrice returns the price for a named tier.
func (c *PricingConfig) TierPrice(tier PricingType) (float64, bool) {
	if c == nil {
		return 0, false
	}
	switch tier {
	case PricingTierS:
		return c.S, true
	case PricingTierM:
		return c.M, true
	case PricingTierL:
		return c.L, true
	default:
		return 0, false
	}
}

// GlobalDiscount is the store-wide promotion banner. It only applies to
// products without their own enabled discount.
type GlobalDiscount struct {
	Active      bool          `json:"active" yaml:"active"`
	Percent     float64       `json:"percent" yaml:"percent" validate:"gte=0,lte=100"`
	Title       LocalizedText `json:"title,omitempty" yaml:"title,omitempty"`
	Description LocalizedText `json:"description,omitempty" yaml:"description,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt" yaml:"-"`
}

// IsApplicable reports whether the discount should be applied to prices.
func (d *GlobalDiscount) IsApplicable() bool {
	return d != nil && d.Active && d.Percent > 0
}
