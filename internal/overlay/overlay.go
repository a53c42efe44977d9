// Package overlay prepares observed points (for example integral-field
// spaxels) for drawing on top of model curves.
package overlay

// Points is a filtered, index-aligned set of observed values.
type Points struct {
	X     []float64
	Y     []float64
	Color []float64
}

// Len returns the number of points.
func (p Points) Len() int {
	return len(p.X)
}

// Normalize checks that x, y and color are index-aligned and drops every
// element whose mask entry is true. A nil mask keeps everything.
func Normalize(x, y, color []float64, mask []bool) (Points, error) {
	if len(y) != len(x) || len(color) != len(x) || (mask != nil && len(mask) != len(x)) {
		return Points{}, &ShapeMismatchError{X: len(x), Y: len(y), Color: len(color), Mask: len(mask), HasMask: mask != nil}
	}

	out := Points{
		X:     make([]float64, 0, len(x)),
		Y:     make([]float64, 0, len(x)),
		Color: make([]float64, 0, len(x)),
	}
	for i := range x {
		if mask != nil && mask[i] {
			continue
		}
		out.X = append(out.X, x[i])
		out.Y = append(out.Y, y[i])
		out.Color = append(out.Color, color[i])
	}
	return out, nil
}

var fitsLabels = map[string]string{
	"S23":      "S23",
	"O23":      "O23",
	"Hα λ6563": "Ha6563",
}

// FITSLabel maps a model axis label to the name observed maps use for it.
func FITSLabel(label string) (string, bool) {
	l, ok := fitsLabels[label]
	return l, ok
}
