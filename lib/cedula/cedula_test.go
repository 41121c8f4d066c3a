package cedula

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckDigit(t *testing.T) {
	testCases := []struct {
		first7   string
		expected int
	}{
		{"0000000", 0},
		// 1*2+2*9+3*8+4*7+5*6+6*3+7*4 = 148 -> (10-8)%10 = 2
		{"1234567", 2},
		// 4*2+1*9+2*8+3*7+4*6+5*3+6*4 = 117 -> (10-7)%10 = 3
		{"4123456", 3},
		{"0000001", 6},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.expected, CheckDigit(tc.first7), "first7=%s", tc.first7)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		ci    string
		valid bool
	}{
		{"00000000", true},
		{"12345672", true},
		{"41234563", true},
		{"12345671", false},
		{"12345673", false},
		{"4.123.456-3", true},
		{"41234563000", false},
		{"", false},
		{"--..", false},
		// short numbers are padded to the fixed width
		{"16", true},
		{"15", false},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.valid, Validate(tc.ci), "ci=%s", tc.ci)
	}
}

func TestFormat(t *testing.T) {
	require.Equal(t, "00000042", Format(42))
	require.Equal(t, "12345672", Format(12345672))
}

// every block of ten consecutive integers shares a seven digit
// prefix, so it contains exactly one valid check digit
func TestValidDensity(t *testing.T) {
	for block := 0; block < 10; block++ {
		count := 0
		for n := block * 10; n < (block+1)*10; n++ {
			if Validate(Format(n)) {
				count++
			}
		}
		require.Equal(t, 1, count, "block=%d", block)
	}
}
