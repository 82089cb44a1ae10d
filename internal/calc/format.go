package calc

import (
	"math/big"
	"strconv"
)

// FormatFixed renders x with the given number of decimals. Ties round away
// from zero on the exact binary value, so 6.25 becomes "6.3" while 1.005
// (stored just below the tie) becomes "1.00".
func FormatFixed(x float64, digits int) string {
	if !finite(x) {
		return strconv.FormatFloat(x, 'f', digits, 64)
	}
	return new(big.Rat).SetFloat64(x).FloatString(digits)
}

// FormatPlain renders x with as few digits as needed ("3", "2.5").
func FormatPlain(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
