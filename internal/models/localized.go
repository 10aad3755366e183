package models

// DefaultLocale is the locale every LocalizedText is expected to carry.
const DefaultLocale = "es"

// SupportedLocales lists the storefront languages in preference order.
var SupportedLocales = []string{"es", "en"}

// LocalizedText maps a locale code to its string.
type LocalizedText map[string]string

// In returns the text for locale, falling back to the default locale and
// then to any non-empty translation.
func (t LocalizedText) In(locale string) string {
	if len(t) == 0 {
		return ""
	}
	if v := t[locale]; v != "" {
		return v
	}
	if v := t[DefaultLocale]; v != "" {
		return v
	}
	for _, code := range SupportedLocales {
		if v := t[code]; v != "" {
			return v
		}
	}
	for _, v := range t {
		if v != "" {
			return v
		}
	}
	return ""
}

// IsSupportedLocale reports whether locale is one of SupportedLocales.
func IsSupportedLocale(locale string) bool {
	for _, code := range SupportedLocales {
		if code == locale {
			return true
		}
	}
	return false
}
