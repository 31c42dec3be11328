package tabular

import (
	"math"
	"testing"
)

func TestFormatFloat(t *testing.T) {
	a, b := 0.1, 0.2
	tests := []struct {
		in   float64
		want string
	}{
		{3, "3.0"},
		{18, "18.0"},
		{0, "0.0"},
		{-2, "-2.0"},
		{0.5, "0.5"},
		{0.75, "0.75"},
		{123.45, "123.45"},
		{a + b, "0.30000000000000004"},
		{1e16, "1e+16"},
		{1.5e-5, "1.5e-05"},
		{0.0001, "0.0001"},
		{math.Inf(1), "inf"},
		{math.NaN(), "nan"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatFloat(tt.in); got != tt.want {
				t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
