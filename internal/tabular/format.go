package tabular

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders v in shortest round-trip form. Integral values keep a
// trailing ".0", and magnitudes outside [1e-4, 1e16) use exponent notation,
// so 3 renders as "3.0" and 1e16 as "1e+16".
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
