// Package textnorm folds free-text labels from the PIM (color names, style
// names, file names) into comparable forms.
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

var foldCaser = cases.Fold()

// Fold lowercases s, strips diacritics and collapses whitespace.
// "Crème Brûlée" folds to "creme brulee".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(foldCaser.String(stripped)), " ")
}

// Words splits a folded label into alphanumeric words.
func Words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Slug produces a URL handle: folded words joined by hyphens.
func Slug(s string) string {
	return strings.Join(Words(s), "-")
}

// Title renders a label in title case for option values.
func Title(s string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}
