package diagnostic

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Request is every selection needed to produce one diagram. The same
// Request always yields the same series.
type Request struct {
	X           AxisSpec `yaml:"x"`
	Y           AxisSpec `yaml:"y"`
	Abundance   string   `yaml:"abundance"`
	Density     float64  `yaml:"density"`
	Window      Window   `yaml:"window"`
	Shock       bool     `yaml:"shock"`
	Precursor   bool     `yaml:"precursor"`
	Independent bool     `yaml:"independent"`
}

// WithDefaults fills an unset window with the full native grid and selects
// the shock family when no family is selected.
func (r Request) WithDefaults() Request {
	if r.Window.IsZero() {
		r.Window = DefaultWindow
	}
	if !r.Shock && !r.Precursor {
		r.Shock = true
	}
	return r
}

// Validate checks the parts of a request every consumer relies on.
func (r Request) Validate() error {
	if err := r.X.Validate(); err != nil {
		return fmt.Errorf("x axis: %w", err)
	}
	if err := r.Y.Validate(); err != nil {
		return fmt.Errorf("y axis: %w", err)
	}
	if err := r.Window.Validate(); err != nil {
		return err
	}
	if !r.Shock && !r.Precursor {
		return fmt.Errorf("select at least one of shock or precursor models")
	}
	if r.Independent && !(r.Shock && r.Precursor) {
		return fmt.Errorf("independent mode requires both shock and precursor models")
	}
	return nil
}

// ReadRequest decodes a YAML request and applies defaults.
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return Request{}, fmt.Errorf("failed to parse request: %w", err)
	}
	return req.WithDefaults(), nil
}

// LoadRequest reads a YAML request file.
func LoadRequest(path string) (Request, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return Request{}, fmt.Errorf("failed to open request file: %w", err)
	}
	defer func() { _ = f.Close() }()

	req, err := ReadRequest(f)
	if err != nil {
		return Request{}, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}
