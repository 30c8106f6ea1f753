// Package checkdigit implements the ICAO 9303 weighted mod-10 check digit.
package checkdigit

import "strconv"

var weights = [3]int{7, 3, 1}

// Value maps an MRZ character to its numeric value: '<' is 0, digits are
// themselves, A-Z are 10-35. Characters outside the alphabet count as filler.
func Value(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c) - 55
	default:
		return 0
	}
}

// Sum returns the weighted sum of s using the repeating 7-3-1 cycle.
func Sum(s string) int {
	sum := 0
	for i := 0; i < len(s); i++ {
		sum += Value(s[i]) * weights[i%3]
	}
	return sum
}

// Calculate returns the check digit of s as a single decimal digit.
// An all-filler string yields "0".
func Calculate(s string) string {
	return strconv.Itoa(Sum(s) % 10)
}

// Verify reports whether digit is the check digit of s.
func Verify(s, digit string) bool {
	return Calculate(s) == digit
}
