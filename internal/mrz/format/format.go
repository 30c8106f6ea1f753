// Package format turns loosely-typed input into fixed-width MRZ substrings.
//
// Every function is total: malformed or empty input degrades to filler rather
// than failing, and re-applying a formatter to its own output is a no-op.
package format

import (
	"strings"

	"mrzgate/internal/mrz/models"
)

// DateWidth is the width of a formatted YYMMDD date.
const DateWidth = 6

// Fill returns n filler characters.
func Fill(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(string(models.Filler), n)
}

// fit right-pads s with filler and truncates it to length.
func fit(s string, length int) string {
	if length <= 0 {
		return ""
	}
	if len(s) >= length {
		return s[:length]
	}
	return s + Fill(length-len(s))
}

// AlphaNumeric upper-cases text, drops everything outside A-Z and 0-9, then
// pads or truncates to length. Used for document and personal numbers.
func AlphaNumeric(text string, length int) string {
	upper := strings.ToUpper(text)
	var b strings.Builder
	b.Grow(len(upper))
	for i := 0; i < len(upper); i++ {
		c := upper[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return fit(b.String(), length)
}

// CountryCode upper-cases text and replaces, rather than drops, every character
// outside A-Z, 0-9 and '<' with filler before padding or truncating to length.
func CountryCode(text string, length int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if r < 0x80 && models.IsMRZChar(byte(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte(models.Filler)
		}
	}
	return fit(b.String(), length)
}

// Date turns an ISO YYYY-MM-DD date into YYMMDD by stripping separators and
// keeping the last six characters. No century pivoting happens here. Absent or
// non-numeric input yields six filler characters.
func Date(iso string) string {
	digits := strings.ReplaceAll(strings.TrimSpace(iso), "-", "")
	if len(digits) < DateWidth {
		return Fill(DateWidth)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Fill(DateWidth)
		}
	}
	return digits[len(digits)-DateWidth:]
}

// Name renders "LAST<<FIRST" in the given width. Each name is upper-cased and
// split on runs of non-letters; the letter groups are rejoined with a single
// filler character.
func Name(last, first string, length int) string {
	return fit(nameBlock(last)+Fill(2)+nameBlock(first), length)
}

func nameBlock(name string) string {
	isSeparator := func(r rune) bool {
		return r < 'A' || r > 'Z'
	}
	groups := strings.FieldsFunc(strings.ToUpper(name), isSeparator)
	return strings.Join(groups, string(models.Filler))
}
