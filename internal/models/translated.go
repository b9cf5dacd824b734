package models

import (
	"sort"
	"strings"
)

// Translated maps a locale code to the value of one translatable attribute.
// Stored as a JSON column, read through Get.
type Translated map[string]string

// Get returns the value for locale, falling back to fallback when it is missing or blank.
func (t Translated) Get(locale, fallback string) string {
	if v, ok := t[locale]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return t[fallback]
}

// Locales lists the locales that carry a non-blank value, sorted.
func (t Translated) Locales() []string {
	out := make([]string, 0, len(t))
	for locale, v := range t {
		if strings.TrimSpace(v) != "" {
			out = append(out, locale)
		}
	}
	sort.Strings(out)
	return out
}
