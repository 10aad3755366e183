package catalog

import (
	"testing"

	"github.com/lunajoyas/catalogo/internal/models"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name         string
		yaml         string
		wantErr      bool
		wantProducts int
	}{
		{
			name: "valid seed",
			yaml: `
pricing:
  S: 10
  M: 20
  L: 30
discount:
  active: true
  percent: 15
  title:
    es: "Rebajas"
    en: "Sale"
categories:
  - id: rings
    name: {es: "Anillos", en: "Rings"}
products:
  - id: ring-1
    title: {es: "Anillo", en: "Ring"}
    categories: [rings]
    pricing:
      type: custom
      customPrice: 45.5
    isNew: true
    published: true
`,
			wantProducts: 1,
		},
		{
			name:    "invalid yaml",
			yaml:    "invalid: yaml: content:",
			wantErr: true,
		},
		{
			name: "empty seed",
			yaml: "",
		},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := parser.ParseFromString(tt.yaml)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(seed.Products) != tt.wantProducts {
				t.Fatalf("expected %d products, got %d", tt.wantProducts, len(seed.Products))
			}
		})
	}
}

func TestParser_ParseFields(t *testing.T) {
	seed, err := NewParser().ParseFromString(`
pricing: {S: 10, M: 20, L: 30}
products:
  - id: ring-1
    title: {es: "Anillo", en: "Ring"}
    categories: [rings]
    pricing: {type: custom, customPrice: 45.5}
    discount: {enabled: true, percent: 10}
`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if seed.Pricing == nil || seed.Pricing.M != 20 {
		t.Fatalf("expected pricing M=20, got %+v", seed.Pricing)
	}
	product := seed.Products[0]
	if product.Title.In("en") != "Ring" {
		t.Fatalf("expected english title, got %q", product.Title.In("en"))
	}
	if product.Pricing.Type != models.PricingCustom || *product.Pricing.CustomPrice != 45.5 {
		t.Fatalf("unexpected pricing %+v", product.Pricing)
	}

	price := NewPricer().Resolve(&product, seed.Pricing, seed.Discount)
	if price.OriginalPrice == nil || *price.OriginalPrice != 45.5 {
		t.Fatalf("expected original 45.5, got %+v", price)
	}
}
