// Package normalize canonicalises person names so that values differing only in
// letter case or accent marks compare equal.
package normalize

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text and strips combining diacritical marks. Characters
// without a base-letter decomposition (digits, punctuation, whitespace, CJK) pass
// through unchanged. The result is idempotent: Normalize(Normalize(s)) == Normalize(s).
//
// Lower-casing is used instead of case folding: folding maps Cherokee to its
// upper-case letters, which lower-case back again on a second pass.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	lowered := cases.Lower(language.Und).String(text)

	// transform.Chain keeps state, so a fresh chain is built per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		return lowered
	}
	return out
}
