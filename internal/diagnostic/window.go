package diagnostic

import (
	"github.com/ptero-astro/ptero/internal/emission"
)

// Window is a (min, max, step) shock-velocity selection in km/s.
type Window struct {
	Min  int `yaml:"min" json:"min"`
	Max  int `yaml:"max" json:"max"`
	Step int `yaml:"step" json:"step"`
}

// DefaultWindow covers the full native grid.
var DefaultWindow = Window{Min: emission.MinVelocity, Max: emission.MaxVelocity, Step: emission.VelocityStep}

// IndexRange is a resolved window: positions start..end (inclusive) every
// stride elements of a vector on the native grid.
type IndexRange struct {
	Start  int
	End    int
	Stride int
}

// NewWindow validates and returns a Window.
func NewWindow(vmin, vmax, vstep int) (Window, error) {
	w := Window{Min: vmin, Max: vmax, Step: vstep}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// IsZero reports whether no bound has been set.
func (w Window) IsZero() bool {
	return w == Window{}
}

// Validate checks the window against the native grid.
func (w Window) Validate() error {
	fail := func(reason string) error {
		return &InvalidWindowError{Min: w.Min, Max: w.Max, Step: w.Step, Reason: reason}
	}
	const step = emission.VelocityStep
	switch {
	case w.Min%step != 0 || w.Max%step != 0:
		return fail("bounds must be multiples of 25")
	case w.Step%step != 0:
		return fail("step must be a multiple of 25")
	case w.Min < emission.MinVelocity || w.Max > emission.MaxVelocity:
		return fail("bounds must lie within [100, 1000]")
	case w.Min >= w.Max:
		return fail("min must be below max")
	case w.Step < step || w.Step > w.Max-w.Min:
		return fail("step must lie within [25, max-min]")
	}
	return nil
}

// Resolve maps the window onto indices of the native 100..1000 grid.
func (w Window) Resolve() (IndexRange, error) {
	if err := w.Validate(); err != nil {
		return IndexRange{}, err
	}
	const step = emission.VelocityStep
	return IndexRange{
		Start:  (w.Min - emission.MinVelocity) / step,
		End:    (w.Max - emission.MinVelocity) / step,
		Stride: w.Step / step,
	}, nil
}

// Velocities returns the uniform grid min, min+step, ... up to max.
func (w Window) Velocities() []int {
	if w.Step <= 0 {
		return nil
	}
	out := make([]int, 0, (w.Max-w.Min)/w.Step+1)
	for v := w.Min; v <= w.Max; v += w.Step {
		out = append(out, v)
	}
	return out
}

// Apply selects v[start:end+1:stride]. End is clamped to the vector so a
// table that stops short of the native maximum still windows cleanly.
func (r IndexRange) Apply(v []float64) []float64 {
	return applyRange(r, v)
}

// ApplyInts is Apply for velocity labels.
func (r IndexRange) ApplyInts(v []int) []int {
	return applyRange(r, v)
}

func applyRange[T any](r IndexRange, v []T) []T {
	out := []T{}
	if r.Stride <= 0 {
		return out
	}
	end := min(r.End, len(v)-1)
	for i := r.Start; i <= end; i += r.Stride {
		out = append(out, v[i])
	}
	return out
}
