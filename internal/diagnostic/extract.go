package diagnostic

import (
	"fmt"

	"github.com/ptero-astro/ptero/internal/emission"
)

// Series is one labeled, windowed axis vector.
type Series struct {
	Label  string
	Values []float64
}

// Diagram is an index-aligned X/Y/velocity triple for one model grid.
type Diagram struct {
	XLabel     string
	YLabel     string
	X          []float64
	Y          []float64
	Velocities []int
}

// Extract resolves one axis against table and applies the window. X and Y
// both go through here.
func Extract(table *emission.Table, axis AxisSpec, window Window) (Series, error) {
	if err := axis.Validate(); err != nil {
		return Series{}, err
	}
	r, err := window.Resolve()
	if err != nil {
		return Series{}, err
	}
	if err := checkNativeAxis(table); err != nil {
		return Series{}, err
	}

	var label string
	var values []float64
	switch axis.Kind {
	case AxisQuantity:
		label, values, err = EvaluateQuantity(table, axis.Name)
	case AxisRatio:
		label, values, err = EvaluateRatio(table, axis.Numerator, axis.Denominator)
	}
	if err != nil {
		return Series{}, err
	}
	return Series{Label: label, Values: r.Apply(values)}, nil
}

// ExtractDiagram resolves both axes and the velocity labels with the same
// window so the three arrays stay aligned.
func ExtractDiagram(table *emission.Table, x, y AxisSpec, window Window) (Diagram, error) {
	xs, err := Extract(table, x, window)
	if err != nil {
		return Diagram{}, fmt.Errorf("x axis: %w", err)
	}
	ys, err := Extract(table, y, window)
	if err != nil {
		return Diagram{}, fmt.Errorf("y axis: %w", err)
	}
	r, _ := window.Resolve()
	return Diagram{
		XLabel:     xs.Label,
		YLabel:     ys.Label,
		X:          xs.Values,
		Y:          ys.Values,
		Velocities: r.ApplyInts(table.Velocities()),
	}, nil
}

// checkNativeAxis rejects tables whose velocity columns skip grid points.
// emission.New already keeps every column on the grid; window indices also
// need the columns to be the contiguous prefix starting at 100 km/s.
func checkNativeAxis(table *emission.Table) error {
	vels := table.Velocities()
	for i, v := range vels {
		if v != emission.MinVelocity+i*emission.VelocityStep {
			return fmt.Errorf("table velocity column %d is %d km/s, want %d (native grid starts at %d every %d km/s)",
				i, v, emission.MinVelocity+i*emission.VelocityStep, emission.MinVelocity, emission.VelocityStep)
		}
	}
	return nil
}
