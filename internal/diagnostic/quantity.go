// Package diagnostic turns emission-line tables into the labeled, windowed
// vectors plotted on a diagnostic diagram.
package diagnostic

import (
	"math"
	"slices"

	"github.com/ptero-astro/ptero/internal/emission"
)

// Line labels used by the derived quantities, as they appear in the
// canonical tables.
const (
	LineHBeta  = "Hβ λ4861"
	LineSII    = "[S II] λλ6716+6731"
	LineSIII   = "[S III] λλ9069+9031"
	LineOII    = "[O II] λλ7319+7320"
	LineOIII   = "[O III] λ5007"
	LineHAlpha = "Hα λ6563"
)

// quantity is a sum of numerator lines over a sum of denominator lines.
type quantity struct {
	numerator   []string
	denominator []string
}

var quantities = map[string]quantity{
	// S23 = ([S II] λλ6716+6731 + [S III] λλ9069+9031) / Hβ λ4861
	"S23": {numerator: []string{LineSII, LineSIII}, denominator: []string{LineHBeta}},
	// O23 = [O II] λλ7319+7320 / [O III] λ5007
	"O23": {numerator: []string{LineOII}, denominator: []string{LineOIII}},
}

// Quantities returns the registered quantity names, sorted.
func Quantities() []string {
	names := make([]string, 0, len(quantities))
	for name := range quantities {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsQuantity reports whether name is a registered derived quantity.
func IsQuantity(name string) bool {
	_, ok := quantities[name]
	return ok
}

// EvaluateQuantity computes a derived quantity over every velocity column of
// table. Lines are looked up by label, so row order never matters.
func EvaluateQuantity(table *emission.Table, name string) (string, []float64, error) {
	q, ok := quantities[name]
	if !ok {
		return "", nil, &UnknownQuantityError{Name: name, Available: Quantities()}
	}
	num, err := sumRows(table, q.numerator)
	if err != nil {
		return "", nil, err
	}
	den, err := sumRows(table, q.denominator)
	if err != nil {
		return "", nil, err
	}
	return name, divide(num, den), nil
}

func sumRows(table *emission.Table, labels []string) ([]float64, error) {
	sum := make([]float64, table.Len())
	for _, label := range labels {
		row, err := table.Row(label)
		if err != nil {
			return nil, err
		}
		for i, v := range row {
			sum[i] += v
		}
	}
	return sum, nil
}

// divide is elementwise num/den; a zero denominator gives NaN instead of
// an infinity. NaN operands propagate.
func divide(num, den []float64) []float64 {
	out := make([]float64, len(num))
	for i := range num {
		if den[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = num[i] / den[i]
	}
	return out
}
