package diagnostic

import (
	"github.com/ptero-astro/ptero/internal/emission"
)

// RatioLabel formats the axis label of a line ratio.
func RatioLabel(num, den string) string {
	return num + " / " + den
}

// EvaluateRatio divides the numerator line by the denominator line.
// Positions with a zero denominator, or a missing (NaN) cell on either side,
// come out as NaN; a single bad cell never fails the whole ratio.
func EvaluateRatio(table *emission.Table, num, den string) (string, []float64, error) {
	n, err := table.Row(num)
	if err != nil {
		return "", nil, err
	}
	d, err := table.Row(den)
	if err != nil {
		return "", nil, err
	}
	return RatioLabel(num, den), divide(n, d), nil
}
