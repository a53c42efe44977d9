package grouping

import (
	"math"

	"github.com/ptero-astro/ptero/internal/diagnostic"
)

// Paired holds the shock and precursor groups of an independent query.
// Shock[i] and Precursor[i] share the same magnetic field.
type Paired struct {
	Shock     []GroupedSeries
	Precursor []GroupedSeries
}

// Pair groups both families and checks that they cover the same magnetic
// field values.
func Pair(shock, precursor []Row, window diagnostic.Window) (Paired, error) {
	s, err := Group(shock, window)
	if err != nil {
		return Paired{}, err
	}
	p, err := Group(precursor, window)
	if err != nil {
		return Paired{}, err
	}

	sf, pf := MagFields(s), MagFields(p)
	if !equalFields(sf, pf) {
		return Paired{}, &MismatchedGroupsError{Shock: sf, Precursor: pf}
	}
	return Paired{Shock: s, Precursor: p}, nil
}

func equalFields(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Segment is a straight line between two diagram points.
type Segment struct {
	X0, Y0, X1, Y1 float64
	Velocity       int
}

func (s Segment) defined() bool {
	return !math.IsNaN(s.X0) && !math.IsNaN(s.Y0) && !math.IsNaN(s.X1) && !math.IsNaN(s.Y1)
}

// Points returns the x and y columns aligned with g.Velocities,
// placeholders included.
func (g GroupedSeries) Points(x, y string) (xs, ys []float64) {
	return nanColumn(g, x), nanColumn(g, y)
}

func nanColumn(g GroupedSeries, name string) []float64 {
	if col, ok := g.Values[name]; ok {
		return col
	}
	col := make([]float64, g.Len())
	for i := range col {
		col[i] = math.NaN()
	}
	return col
}

// Connectors joins equal-velocity points of consecutive groups, tracing
// how a diagram point moves as the magnetic field grows.
func Connectors(groups []GroupedSeries, x, y string) []Segment {
	var out []Segment
	for i := 1; i < len(groups); i++ {
		out = append(out, link(groups[i-1], groups[i], x, y)...)
	}
	return out
}

// Links joins each shock group to the precursor group with the same field
// at every velocity both define.
func (p Paired) Links(x, y string) []Segment {
	var out []Segment
	for i := range p.Shock {
		out = append(out, link(p.Shock[i], p.Precursor[i], x, y)...)
	}
	return out
}

func link(a, b GroupedSeries, x, y string) []Segment {
	ax, ay := a.Points(x, y)
	bx, by := b.Points(x, y)
	n := min(a.Len(), b.Len())

	var out []Segment
	for j := 0; j < n; j++ {
		if a.Velocities[j] != b.Velocities[j] {
			continue
		}
		s := Segment{X0: ax[j], Y0: ay[j], X1: bx[j], Y1: by[j], Velocity: a.Velocities[j]}
		if s.defined() {
			out = append(out, s)
		}
	}
	return out
}
