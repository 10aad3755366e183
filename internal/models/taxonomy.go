package models

import "time"

type Category struct {
	ID          string        `json:"id" yaml:"id"`
	Name        LocalizedText `json:"name" yaml:"name"`
	Description LocalizedText `json:"description,omitempty" yaml:"description,omitempty"`
	Slug        string        `json:"slug,omitempty" yaml:"slug,omitempty" validate:"omitempty,max=80"`
	Image       string        `json:"image,omitempty" yaml:"image,omitempty" validate:"omitempty,url"`
	Order       int           `json:"order" yaml:"order"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time     `json:"updatedAt" yaml:"-"`
}

type Tag struct {
	ID        string        `json:"id" yaml:"id"`
	Name      LocalizedText `json:"name" yaml:"name"`
	Slug      string        `json:"slug,omitempty" yaml:"slug,omitempty" validate:"omitempty,max=80"`
	CreatedAt time.Time     `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time     `json:"updatedAt" yaml:"-"`
}

type Collection struct {
	ID          string        `json:"id" yaml:"id"`
	Name        LocalizedText `json:"name" yaml:"name"`
	Description LocalizedText `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string        `json:"image,omitempty" yaml:"image,omitempty" validate:"omitempty,url"`
	ProductIDs  []string      `json:"productIds" yaml:"productIds" validate:"dive,required"`
	Published   bool          `json:"published" yaml:"published"`
	Order       int           `json:"order" yaml:"order"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time     `json:"updatedAt" yaml:"-"`
}

// Includes reports whether productID belongs to the collection.
func (c *Collection) Includes(productID string) bool {
	return c != nil && containsString(c.ProductIDs, productID)
}

type ShippingOption struct {
	ID            string        `json:"id" yaml:"id"`
	Name          LocalizedText `json:"name" yaml:"name"`
	Description   LocalizedText `json:"description,omitempty" yaml:"description,omitempty"`
	Price         float64       `json:"price" yaml:"price" validate:"gte=0"`
	EstimatedDays string        `json:"estimatedDays,omitempty" yaml:"estimatedDays,omitempty" validate:"max=40"`
	Active        bool          `json:"active" yaml:"active"`
	Order         int           `json:"order" yaml:"order"`
	CreatedAt     time.Time     `json:"createdAt" yaml:"-"`
	UpdatedAt     time.Time     `json:"updatedAt" yaml:"-"`
}

type PaymentMethod struct {
	ID          string        `json:"id" yaml:"id"`
	Name        LocalizedText `json:"name" yaml:"name"`
	Description LocalizedText `json:"description,omitempty" yaml:"description,omitempty"`
	Active      bool          `json:"active" yaml:"active"`
	Order       int           `json:"order" yaml:"order"`
	CreatedAt   time.Time     `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time     `json:"updatedAt" yaml:"-"`
}
