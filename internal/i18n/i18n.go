// Package i18n holds the storefront string tables and locale negotiation.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lunajoyas/catalogo/internal/models"
)

//go:embed locales/*.json
var localesFS embed.FS

// Translator looks keys up per locale and falls back to the default
// locale's table when a key is missing.
type Translator struct {
	defaultLocale string
	tables        map[string]map[string]string
	matcher       language.Matcher
	tags          []language.Tag
}

// New loads the embedded tables. defaultLocale must be one of
// models.SupportedLocales.
func New(defaultLocale string) (*Translator, error) {
	if !models.IsSupportedLocale(defaultLocale) {
		return nil, fmt.Errorf("unsupported default locale %q", defaultLocale)
	}

	tables := make(map[string]map[string]string, len(models.SupportedLocales))
	for _, locale := range models.SupportedLocales {
		raw, err := localesFS.ReadFile(path.Join("locales", locale+".json"))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", locale, err)
		}
		var table map[string]string
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("failed to parse %s dictionary: %w", locale, err)
		}
		tables[locale] = table
	}
	return fromTables(defaultLocale, tables), nil
}

// fromTables builds a Translator over already loaded tables. The default
// locale's tag goes first so the matcher falls back to it.
func fromTables(defaultLocale string, tables map[string]map[string]string) *Translator {
	tags := []language.Tag{language.Make(defaultLocale)}
	for _, locale := range models.SupportedLocales {
		if _, ok := tables[locale]; ok && locale != defaultLocale {
			tags = append(tags, language.Make(locale))
		}
	}
	return &Translator{
		defaultLocale: defaultLocale,
		tables:        tables,
		matcher:       language.NewMatcher(tags),
		tags:          tags,
	}
}

func (t *Translator) DefaultLocale() string {
	return t.defaultLocale
}

// T returns the string for key. Unknown keys render as the key itself.
func (t *Translator) T(locale, key string) string {
	if v, ok := t.tables[t.Normalize(locale)][key]; ok {
		return v
	}
	if v, ok := t.tables[t.defaultLocale][key]; ok {
		return v
	}
	return key
}

// Tf formats the string for key with a locale-aware printer.
func (t *Translator) Tf(locale, key string, args ...any) string {
	locale = t.Normalize(locale)
	return t.printer(locale).Sprintf(t.T(locale, key), args...)
}

// Dictionary returns the merged table for locale, default entries filled
// in for missing keys.
func (t *Translator) Dictionary(locale string) map[string]string {
	locale = t.Normalize(locale)
	merged := make(map[string]string, len(t.tables[t.defaultLocale]))
	for k, v := range t.tables[t.defaultLocale] {
		merged[k] = v
	}
	for k, v := range t.tables[locale] {
		merged[k] = v
	}
	return merged
}

// Normalize maps any locale string onto a supported locale.
func (t *Translator) Normalize(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if _, ok := t.tables[locale]; ok {
		return locale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return t.defaultLocale
	}
	return t.match(tag)
}

// Negotiate picks the locale from an explicit choice, then from an
// Accept-Language header.
func (t *Translator) Negotiate(explicit, acceptLanguage string) string {
	if explicit != "" {
		return t.Normalize(explicit)
	}
	if acceptLanguage == "" {
		return t.defaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.defaultLocale
	}
	return t.match(tags...)
}

// FormatPrice renders amount with the locale's digit grouping.
func (t *Translator) FormatPrice(locale string, amount float64) string {
	return t.Tf(locale, "price.format", amount)
}

func (t *Translator) match(tags ...language.Tag) string {
	_, index, confidence := t.matcher.Match(tags...)
	if confidence == language.No {
		return t.defaultLocale
	}
	base, _ := t.tags[index].Base()
	return base.String()
}

func (t *Translator) printer(locale string) *message.Printer {
	return message.NewPrinter(language.Make(locale))
}
