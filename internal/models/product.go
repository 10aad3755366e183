package models

import "time"

type PricingType string

const (
	PricingTierS  PricingType = "S"
	PricingTierM  PricingType = "M"
	PricingTierL  PricingType = "L"
	PricingCustom PricingType = "custom"
)

// ProductPricing references either a named tier of the PricingConfig or a
// fixed custom amount.
type ProductPricing struct {
	Type        PricingType `json:"type" yaml:"type" validate:"required,oneof=S M L custom"`
	CustomPrice *float64    `json:"customPrice,omitempty" yaml:"customPrice,omitempty" validate:"omitempty,gte=0"`
}

type ProductDiscount struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Percent     float64 `json:"percent" yaml:"percent" validate:"gte=0,lte=100"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty" validate:"max=280"`
}

type Product struct {
	ID          string           `json:"id" yaml:"id"`
	Title       LocalizedText    `json:"title" yaml:"title"`
	Description LocalizedText    `json:"description,omitempty" yaml:"description,omitempty"`
	Categories  []string         `json:"categories" yaml:"categories" validate:"min=1,dive,required"`
	Tags        []string         `json:"tags,omitempty" yaml:"tags,omitempty" validate:"dive,required"`
	Images      []string         `json:"images,omitempty" yaml:"images,omitempty" validate:"dive,url"`
	Pricing     *ProductPricing  `json:"pricing,omitempty" yaml:"pricing,omitempty"`
	Price       *float64         `json:"price,omitempty" yaml:"price,omitempty" validate:"omitempty,gte=0"`
	Discount    *ProductDiscount `json:"discount,omitempty" yaml:"discount,omitempty"`
	IsNew       bool             `json:"isNew" yaml:"isNew"`
	Popularity  float64          `json:"popularity" yaml:"popularity" validate:"gte=0"`
	Published   bool             `json:"published" yaml:"published"`
	CreatedAt   time.Time        `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time        `json:"updatedAt" yaml:"-"`
}

// PrimaryImage returns the first image URL or "".
func (p *Product) PrimaryImage() string {
	if p == nil || len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasCategory reports whether the product is filed under categoryID.
func (p *Product) HasCategory(categoryID string) bool {
	return p != nil && containsString(p.Categories, categoryID)
}

// HasTag reports whether the product carries tagID.
func (p *Product) HasTag(tagID string) bool {
	return p != nil && containsString(p.Tags, tagID)
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
