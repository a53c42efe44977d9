// Package grouping reshapes flat model rows into one velocity-indexed series
// per magnetic-field value and back.
package grouping

import (
	"fmt"
	"math"
	"sort"

	"github.com/ptero-astro/ptero/internal/diagnostic"
)

// Row is one model returned by a query: its shock velocity, its magnetic
// field and the value of every selected column.
type Row struct {
	Velocity float64
	MagField float64
	Values   map[string]float64
}

// GroupedSeries holds the rows of one magnetic-field value reindexed onto
// the full velocity grid of a window. Velocities the database lacks are
// placeholders: Present is false and every value is NaN.
type GroupedSeries struct {
	MagField   float64
	Velocities []int
	Present    []bool
	Values     map[string][]float64
}

// Len returns the number of grid positions.
func (g GroupedSeries) Len() int {
	return len(g.Velocities)
}

// Column returns the values of one column, or nil when it is unknown.
func (g GroupedSeries) Column(name string) []float64 {
	return g.Values[name]
}

// Group partitions rows by magnetic field, ascending, and reindexes each
// group onto window's velocity grid. Rows whose velocity is not on the grid
// are dropped. Two rows with the same field and velocity are an error.
func Group(rows []Row, window diagnostic.Window) ([]GroupedSeries, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	grid := window.Velocities()
	index := make(map[int]int, len(grid))
	for i, v := range grid {
		index[v] = i
	}

	columns := columnNames(rows)
	byField := make(map[float64]*GroupedSeries)
	for _, row := range rows {
		if math.IsNaN(row.MagField) {
			return nil, fmt.Errorf("model at %g km/s has no magnetic field", row.Velocity)
		}
		pos, ok := gridPosition(row.Velocity, index)
		if !ok {
			continue
		}

		g, ok := byField[row.MagField]
		if !ok {
			g = newGroup(row.MagField, grid, columns)
			byField[row.MagField] = g
		}
		if g.Present[pos] {
			return nil, &DuplicateVelocityError{MagField: row.MagField, Velocity: grid[pos]}
		}
		g.Present[pos] = true
		for name, value := range row.Values {
			g.Values[name][pos] = value
		}
	}

	fields := make([]float64, 0, len(byField))
	for f := range byField {
		fields = append(fields, f)
	}
	sort.Float64s(fields)

	out := make([]GroupedSeries, len(fields))
	for i, f := range fields {
		out[i] = *byField[f]
	}
	return out, nil
}

func gridPosition(velocity float64, index map[int]int) (int, bool) {
	if velocity != math.Trunc(velocity) {
		return 0, false
	}
	pos, ok := index[int(velocity)]
	return pos, ok
}

func newGroup(field float64, grid []int, columns []string) *GroupedSeries {
	g := &GroupedSeries{
		MagField:   field,
		Velocities: append([]int(nil), grid...),
		Present:    make([]bool, len(grid)),
		Values:     make(map[string][]float64, len(columns)),
	}
	for _, name := range columns {
		col := make([]float64, len(grid))
		for i := range col {
			col[i] = math.NaN()
		}
		g.Values[name] = col
	}
	return g
}

func columnNames(rows []Row) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, row := range rows {
		for name := range row.Values {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// MagFields lists the field value of each group in order.
func MagFields(groups []GroupedSeries) []float64 {
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = g.MagField
	}
	return out
}

// Flatten is the inverse of Group: it emits one row per present grid
// position, group by group.
func Flatten(groups []GroupedSeries) []Row {
	var rows []Row
	for _, g := range groups {
		for i, v := range g.Velocities {
			if !g.Present[i] {
				continue
			}
			values := make(map[string]float64, len(g.Values))
			for name, col := range g.Values {
				values[name] = col[i]
			}
			rows = append(rows, Row{Velocity: float64(v), MagField: g.MagField, Values: values})
		}
	}
	return rows
}
