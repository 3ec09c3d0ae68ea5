package validators

import (
	"strings"
	"unicode/utf8"
)

// maxQueryValueLen bounds a single query value in bytes.
const maxQueryValueLen = 256

// SanitizeQueryValue trims, collapses inner whitespace, and caps a raw query value
// at maxLen bytes without splitting a multi-byte rune ("São Paulo" stays valid UTF-8).
func SanitizeQueryValue(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 || len(cleaned) <= maxLen {
		return cleaned
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
		cut--
	}
	return strings.TrimSpace(cleaned[:cut])
}
