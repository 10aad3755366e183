package catalog

// Package catalog parses catalog seed files.

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lunajoyas/catalogo/internal/models"
)

// Seed is a full catalog snapshot used to bootstrap or restore a store.
type Seed struct {
	Pricing         *models.PricingConfig   `yaml:"pricing"`
	Discount        *models.GlobalDiscount  `yaml:"discount"`
	Categories      []models.Category       `yaml:"categories"`
	Tags            []models.Tag            `yaml:"tags"`
	Collections     []models.Collection     `yaml:"collections"`
	ShippingOptions []models.ShippingOption `yaml:"shippingOptions"`
	PaymentMethods  []models.PaymentMethod  `yaml:"paymentMethods"`
	Products        []models.Product        `yaml:"products"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(content, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &seed, nil
}

func (p *Parser) ParseFromString(content string) (*Seed, error) {
	return p.Parse([]byte(content))
}
