package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into a base letter plus a combining mark.
var special = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "ø", "o", "œ", "oe", "ł", "l", "đ", "d", "ı", "i", "þ", "th",
)

// Generate creates a URL-friendly slug. Accented letters are folded to ASCII.
//
//	"Bio Farma Záhorie"  → "bio-farma-zahorie"
//	"Čerstvé mlieko!!"   → "cerstve-mlieko"
func Generate(name string) string {
	s := special.Replace(strings.ToLower(strings.TrimSpace(name)))

	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		s,
	)
	if err == nil {
		s = folded
	}

	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}

// WithSuffix appends n to base, for disambiguating a slug that is taken.
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
