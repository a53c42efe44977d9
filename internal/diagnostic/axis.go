package diagnostic

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// AxisKind discriminates AxisSpec.
type AxisKind int

// Axis kinds.
const (
	AxisQuantity AxisKind = iota + 1
	AxisRatio
)

// AxisSpec selects what one diagram axis shows: a derived quantity or a
// numerator/denominator line ratio. Build it with Quantity or Ratio.
type AxisSpec struct {
	Kind        AxisKind
	Name        string
	Numerator   string
	Denominator string
}

// Quantity selects a derived quantity.
func Quantity(name string) AxisSpec {
	return AxisSpec{Kind: AxisQuantity, Name: name}
}

// Ratio selects a line ratio.
func Ratio(num, den string) AxisSpec {
	return AxisSpec{Kind: AxisRatio, Numerator: num, Denominator: den}
}

// Label is the axis title.
func (a AxisSpec) Label() string {
	if a.Kind == AxisRatio {
		return RatioLabel(a.Numerator, a.Denominator)
	}
	return a.Name
}

// Validate checks that the axis is fully populated. It does not check that
// the names resolve; that depends on the table or source.
func (a AxisSpec) Validate() error {
	switch a.Kind {
	case AxisQuantity:
		if a.Name == "" {
			return fmt.Errorf("quantity axis needs a name")
		}
	case AxisRatio:
		if a.Numerator == "" || a.Denominator == "" {
			return fmt.Errorf("ratio axis needs a numerator and a denominator")
		}
	default:
		return fmt.Errorf("axis is neither a quantity nor a ratio")
	}
	return nil
}

func (a AxisSpec) String() string {
	if a.Kind == AxisRatio {
		return "ratio(" + a.Label() + ")"
	}
	return "quantity(" + a.Name + ")"
}

type axisYAML struct {
	Quantity    string `yaml:"quantity,omitempty"`
	Numerator   string `yaml:"numerator,omitempty"`
	Denominator string `yaml:"denominator,omitempty"`
}

// UnmarshalYAML accepts either {quantity: S23} or
// {numerator: ..., denominator: ...}.
func (a *AxisSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw axisYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch {
	case raw.Quantity != "" && (raw.Numerator != "" || raw.Denominator != ""):
		return fmt.Errorf("line %d: axis sets both a quantity and a ratio", node.Line)
	case raw.Quantity != "":
		*a = Quantity(raw.Quantity)
	default:
		*a = Ratio(raw.Numerator, raw.Denominator)
	}
	return nil
}

// MarshalYAML writes the same shape UnmarshalYAML reads.
func (a AxisSpec) MarshalYAML() (any, error) {
	if a.Kind == AxisRatio {
		return axisYAML{Numerator: a.Numerator, Denominator: a.Denominator}, nil
	}
	return axisYAML{Quantity: a.Name}, nil
}
