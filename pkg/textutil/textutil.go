package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// FoldAccents removes diacritics, "Tél" becomes "Tel".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName lowercases, folds accents and collapses whitespace so that
// table headers can be compared against keywords.
func NormalizeName(name string) string {
	name = FoldAccents(name)
	name = strings.ToLower(name)
	name = strings.TrimSpace(name)
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// MatchName returns true if the normalized name contains any of the matchers.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// Similar compares two normalized names using Jaro-Winkler similarity.
func Similar(a, b string, threshold float64) bool {
	a = NormalizeName(a)
	b = NormalizeName(b)
	if a == "" || b == "" {
		return false
	}
	return matchr.JaroWinkler(a, b, false) >= threshold
}

var trailingPostalCode = regexp.MustCompile(`^(.*?)\s*\b(\d{5})$`)

// SplitCityPostal splits a "CITY 12345" cell into its city and postal code,
// the city is returned as is when there is no trailing 5 digit code.
func SplitCityPostal(s string) (city string, postal string) {
	s = strings.TrimSpace(s)
	groups := trailingPostalCode.FindStringSubmatch(s)
	if groups == nil {
		return s, ""
	}
	return strings.TrimSpace(groups[1]), groups[2]
}
