package emission

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ReadTable parses a canonical tab-separated emission-line table. The
// header row holds a label column followed by the shock velocities; every
// following row is a line label followed by its fluxes. Cells that are not
// numeric are kept as NaN.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty table")
		}
		return nil, fmt.Errorf("failed to read table header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("table header has no velocity columns")
	}

	velocities := make([]int, 0, len(header)-1)
	for _, cell := range header[1:] {
		v, err := parseVelocity(cell)
		if err != nil {
			return nil, err
		}
		velocities = append(velocities, v)
	}

	var labels []string
	var rows [][]float64
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read table row %d: %w", len(rows)+2, err)
		}
		label := strings.TrimSpace(record[0])
		if label == "" {
			continue
		}
		values := make([]float64, len(record)-1)
		for i, cell := range record[1:] {
			values[i] = parseFlux(cell)
		}
		labels = append(labels, label)
		rows = append(rows, values)
	}

	return New(velocities, labels, rows)
}

// LoadFile reads a canonical table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func parseVelocity(cell string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid velocity column %q", cell)
	}
	return int(f), nil
}

func parseFlux(cell string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
