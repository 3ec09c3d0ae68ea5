package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripAccents decomposes s and drops combining marks, so "São Paulo" becomes "Sao Paulo".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// PlaceKey lowercases and strips accents for matching place names across sources.
func PlaceKey(s string) string {
	return strings.ToLower(StripAccents(strings.TrimSpace(s)))
}

// Title upper-cases the first letter of every word.
func Title(s string) string {
	return cases.Title(language.Und).String(s)
}
