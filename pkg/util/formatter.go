package util

import (
	"fmt"
	"math"
)

var prefixes = []struct {
	scale  float64
	symbol string
}{
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "k"},
	{1, ""},
	{1e-3, "m"},
	{1e-6, "u"},
	{1e-9, "n"},
	{1e-12, "p"},
}

// FormatValueFactor prints value with three decimals and an engineering
// prefix, e.g. 0.0025 A -> "2.500 mA". Values under 1p fall back to %e.
func FormatValueFactor(value float64, unit string) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Sprintf("%v %s", value, unit)
	}
	if value == 0 {
		return fmt.Sprintf("%.3f %s", 0.0, unit)
	}

	absValue := math.Abs(value)
	for _, p := range prefixes {
		if absValue >= p.scale {
			return fmt.Sprintf("%.3f %s%s", value/p.scale, p.symbol, unit)
		}
	}
	return fmt.Sprintf("%.3e %s", value, unit)
}

// FormatNorm prints a convergence norm in compact exponent form.
func FormatNorm(value float64) string {
	return fmt.Sprintf("%8.2e", value)
}
