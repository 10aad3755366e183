package export

import (
	"testing"

	"github.com/lunajoyas/catalogo/internal/i18n"
)

func TestFilterSummary(t *testing.T) {
	t.Parallel()

	tr, err := i18n.New("es")
	if err != nil {
		t.Fatalf("translator: %v", err)
	}

	tests := []struct {
		name   string
		sel    Selection
		locale string
		want   string
	}{
		{name: "nothing selected english", locale: "en", want: "All products"},
		{name: "nothing selected spanish", locale: "es", want: "Todos los productos"},
		{name: "blank search counts as empty", sel: Selection{Search: "   "}, locale: "en", want: "All products"},
		{
			name:   "categories only",
			sel:    Selection{Categories: []string{"rings", "necklaces"}},
			locale: "en",
			want:   "Categories: rings, necklaces",
		},
		{
			name: "every clause in order",
			sel: Selection{
				Categories: []string{"anillos"},
				Tags:       []string{"plata", "oro"},
				Collection: "Verano",
				Search:     " luna ",
			},
			locale: "es",
			want:   `Categorías: anillos | Etiquetas: plata, oro | Colección: Verano | Búsqueda: "luna"`,
		},
		{
			name:   "tags and search",
			sel:    Selection{Tags: []string{"gold"}, Search: "moon"},
			locale: "en",
			want:   `Tags: gold | Search: "moon"`,
		},
		{
			name:   "search printed verbatim",
			sel:    Selection{Search: `luna "plata" \ oro`},
			locale: "es",
			want:   `Búsqueda: "luna "plata" \ oro"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FilterSummary(tt.sel, tt.locale, tr); got != tt.want {
				t.Fatalf("FilterSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
