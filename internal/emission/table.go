// Package emission holds the canonical in-memory representation of one
// shock-model grid: emission-line fluxes keyed by line label, aligned with
// an ascending shock-velocity axis.
package emission

import (
	"fmt"
	"slices"
)

// Native velocity grid of the shock models, in km/s.
const (
	MinVelocity  = 100
	MaxVelocity  = 1000
	VelocityStep = 25
)

// Table is an immutable emission-line table. Construct it with New; every
// accessor returns a copy so callers cannot mutate the table.
type Table struct {
	velocities []int
	labels     []string
	rows       map[string][]float64
}

// New builds a Table. Velocities must lie on the native grid and be strictly
// increasing, labels must be unique and every row must match the velocity
// axis length.
func New(velocities []int, labels []string, rows [][]float64) (*Table, error) {
	if len(velocities) == 0 {
		return nil, fmt.Errorf("table has no velocity columns")
	}
	for i, v := range velocities {
		if !OnGrid(v) {
			return nil, fmt.Errorf("velocity column %d km/s is off the native grid (multiples of %d within [%d, %d])",
				v, VelocityStep, MinVelocity, MaxVelocity)
		}
		if i > 0 && v <= velocities[i-1] {
			return nil, fmt.Errorf("velocity columns must be strictly increasing: %d follows %d", v, velocities[i-1])
		}
	}
	if len(labels) != len(rows) {
		return nil, fmt.Errorf("got %d labels for %d rows", len(labels), len(rows))
	}

	t := &Table{
		velocities: slices.Clone(velocities),
		labels:     make([]string, 0, len(labels)),
		rows:       make(map[string][]float64, len(labels)),
	}
	for i, label := range labels {
		if _, dup := t.rows[label]; dup {
			return nil, fmt.Errorf("duplicate line label %q", label)
		}
		if len(rows[i]) != len(velocities) {
			return nil, fmt.Errorf("line %q has %d values, want %d", label, len(rows[i]), len(velocities))
		}
		t.labels = append(t.labels, label)
		t.rows[label] = slices.Clone(rows[i])
	}
	return t, nil
}

// OnGrid reports whether v is a native grid velocity.
func OnGrid(v int) bool {
	return v >= MinVelocity && v <= MaxVelocity && v%VelocityStep == 0
}

// Row returns the flux vector for label.
func (t *Table) Row(label string) ([]float64, error) {
	row, ok := t.rows[label]
	if !ok {
		return nil, &LineNotFoundError{Label: label}
	}
	return slices.Clone(row), nil
}

// Has reports whether the table carries label.
func (t *Table) Has(label string) bool {
	_, ok := t.rows[label]
	return ok
}

// Velocities returns the velocity headers in ascending order.
func (t *Table) Velocities() []int {
	return slices.Clone(t.velocities)
}

// Labels returns the line labels in their original order.
func (t *Table) Labels() []string {
	return slices.Clone(t.labels)
}

// Len returns the number of velocity columns.
func (t *Table) Len() int {
	return len(t.velocities)
}
