package export

import "strings"

// Selection is the filter state the catalog was exported under. It is
// printed on the first page and never used to filter.
type Selection struct {
	Categories []string `json:"categories,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Collection string   `json:"collection,omitempty"`
	Search     string   `json:"search,omitempty"`
}

// Translator resolves localized strings.
type Translator interface {
	T(locale, key string) string
	Tf(locale, key string, args ...any) string
}

// FilterSummary renders sel as one localized line, for example
// `Categories: rings, necklaces | Search: "silver"`.
func FilterSummary(sel Selection, locale string, tr Translator) string {
	clauses := make([]string, 0, 4)
	if len(sel.Categories) > 0 {
		clauses = append(clauses, tr.T(locale, "export.categories")+": "+strings.Join(sel.Categories, ", "))
	}
	if len(sel.Tags) > 0 {
		clauses = append(clauses, tr.T(locale, "export.tags")+": "+strings.Join(sel.Tags, ", "))
	}
	if collection := strings.TrimSpace(sel.Collection); collection != "" {
		clauses = append(clauses, tr.T(locale, "export.collection")+": "+collection)
	}
	if search := strings.TrimSpace(sel.Search); search != "" {
		clauses = append(clauses, tr.T(locale, "export.search")+`: "`+search+`"`)
	}

	if len(clauses) == 0 {
		return tr.T(locale, "export.allProducts")
	}
	return strings.Join(clauses, " | ")
}
