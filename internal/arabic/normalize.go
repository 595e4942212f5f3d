// Package arabic reduces Arabic text to the form used for comparing a spoken
// transcript against verse text.
package arabic

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tashkeel: fathatan through sukun.
var diacritics = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x064B, Hi: 0x0652, Stride: 1}},
}

// Hamza through yeh.
var letters = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0621, Hi: 0x064A, Stride: 1}},
}

var notLetterOrSpace = runes.Predicate(func(r rune) bool {
	return !unicode.Is(letters, r) && !unicode.IsSpace(r)
})

// Normalize composes text, strips tashkeel and every rune that is neither a
// core Arabic letter nor whitespace, then collapses whitespace to single
// spaces. It is idempotent and never fails.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(
		norm.NFC,
		runes.Remove(runes.In(diacritics)),
		runes.Remove(notLetterOrSpace),
	)
	stripped, _, _ := transform.String(t, text)
	return strings.Join(strings.Fields(stripped), " ")
}

// NormalizeAll normalizes each text, keeping order.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = Normalize(text)
	}
	return out
}
