// Package textnorm canonicalizes free text and tags so they can be compared.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	disallowed = regexp.MustCompile(`[^a-z0-9\-\s]`)
	spaces     = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, folds accents, strips everything outside [a-z0-9-\s],
// turns hyphens into spaces and collapses whitespace. It is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded := fold(text)
	folded = strings.ToLower(folded)
	folded = disallowed.ReplaceAllString(folded, "")
	folded = strings.ReplaceAll(folded, "-", " ")
	folded = spaces.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

// UniquePhrases normalizes each entry, drops empties and de-duplicates
// keeping first-seen order.
func UniquePhrases(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, item := range list {
		n := Normalize(item)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ContainsPhrase reports whether phrase occurs in text on word boundaries.
// Both arguments must already be normalized.
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" || text == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// Join normalizes and joins parts into one searchable string.
func Join(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		n := Normalize(p)
		if n == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(n)
	}
	return b.String()
}

func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
