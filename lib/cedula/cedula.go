// Package cedula validates Uruguayan cédula de identidad numbers.
package cedula

import (
	"fmt"
	"strings"
)

// Width is the fixed zero-padded width of a cédula number.
const Width = 8

var weights = [7]int{2, 9, 8, 7, 6, 3, 4}

// Format renders an integer identifier as a fixed-width
// zero-padded cédula string.
func Format(n int) string {
	return fmt.Sprintf("%0*d", Width, n)
}

// CheckDigit computes the check digit over the first seven
// digits of a normalized cédula.
func CheckDigit(first7 string) int {
	sum := 0
	for i := 0; i < len(weights); i++ {
		sum += int(first7[i]-'0') * weights[i]
	}
	return (10 - sum%10) % 10
}

// Validate reports whether ci is a well-formed cédula whose
// check digit matches. Non-digit characters are stripped and
// shorter numbers are left-padded with zeros before checking.
func Validate(ci string) bool {
	var b strings.Builder
	for _, r := range ci {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 0 || len(digits) > Width {
		return false
	}
	digits = strings.Repeat("0", Width-len(digits)) + digits

	return CheckDigit(digits[:Width-1]) == int(digits[Width-1]-'0')
}
