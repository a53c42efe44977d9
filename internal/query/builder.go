// Package query turns diagnostic requests into parametrized SQL against the
// shock-model database and fetches the resulting model rows.
package query

import (
	"fmt"
	"strings"

	"github.com/ptero-astro/ptero/internal/diagnostic"
	"github.com/ptero-astro/ptero/pkg/adapter"
)

// DefaultReference selects the Allen et al. (2008) shock grid.
const DefaultReference = "Allen08"

// Column is one selected expression and the alias it is returned under.
type Column struct {
	Alias string
	Expr  string
}

// Statement is one SQL query with its bound arguments. Columns lists the
// aliases returned between shck_vel (first) and mag_fld (last).
type Statement struct {
	Family  Family
	SQL     string
	Args    []any
	Columns []string
}

// Builder translates requests into statements for one SQL dialect.
type Builder struct {
	Reference string
	Dialect   *adapter.Dialect
}

// NewBuilder creates a Builder. An empty reference selects DefaultReference.
func NewBuilder(reference string, d *adapter.Dialect) *Builder {
	if reference == "" {
		reference = DefaultReference
	}
	if d == nil {
		d = &adapter.Dialect{Name: "sqlite3"}
	}
	return &Builder{Reference: reference, Dialect: d}
}

// AxisColumn resolves an axis against the translation tables.
func AxisColumn(axis diagnostic.AxisSpec) (Column, error) {
	if err := axis.Validate(); err != nil {
		return Column{}, err
	}
	switch axis.Kind {
	case diagnostic.AxisQuantity:
		expr, ok := quantityColumns[axis.Name]
		if !ok {
			return Column{}, &diagnostic.UnknownQuantityError{Name: axis.Name, Available: Quantities()}
		}
		return Column{Alias: strings.ToLower(axis.Name), Expr: expr}, nil
	default:
		num, err := lineColumn(axis.Numerator)
		if err != nil {
			return Column{}, err
		}
		den, err := lineColumn(axis.Denominator)
		if err != nil {
			return Column{}, err
		}
		return Column{
			Alias: strings.ToLower(axis.Numerator + "_over_" + axis.Denominator),
			Expr:  fmt.Sprintf("(%s) / NULLIF(%s, 0)", num, den),
		}, nil
	}
}

// Families returns the model families a request reads, one statement each.
func Families(req diagnostic.Request) []Family {
	switch {
	case req.Independent:
		return []Family{FamilyShock, FamilyPrecursor}
	case req.Shock && req.Precursor:
		return []Family{FamilyShockAndPrecursor}
	case req.Precursor:
		return []Family{FamilyPrecursor}
	default:
		return []Family{FamilyShock}
	}
}

// Build validates req and returns one statement per family it reads.
func (b *Builder) Build(req diagnostic.Request) ([]Statement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	x, err := AxisColumn(req.X)
	if err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}
	y, err := AxisColumn(req.Y)
	if err != nil {
		return nil, fmt.Errorf("y axis: %w", err)
	}
	columns := []Column{x}
	if y.Alias != x.Alias {
		columns = append(columns, y)
	}

	families := Families(req)
	stmts := make([]Statement, 0, len(families))
	for _, f := range families {
		stmts = append(stmts, b.statement(f, columns, req))
	}
	return stmts, nil
}

func (b *Builder) statement(f Family, columns []Column, req diagnostic.Request) Statement {
	var sb strings.Builder
	sb.WriteString("SELECT\n    shock_params.shck_vel AS shck_vel,\n")
	aliases := make([]string, len(columns))
	for i, c := range columns {
		fmt.Fprintf(&sb, "    %s AS %s,\n", c.Expr, c.Alias)
		aliases[i] = c.Alias
	}
	sb.WriteString("    shock_params.mag_fld AS mag_fld\n")
	sb.WriteString("FROM shock_params\n")
	sb.WriteString("    INNER JOIN emis_IR ON emis_IR.ModelID = shock_params.ModelID\n")
	sb.WriteString("    INNER JOIN emis_VI ON emis_VI.ModelID = shock_params.ModelID\n")
	sb.WriteString("    INNER JOIN abundances ON abundances.AbundID = shock_params.AbundID\n")

	ph := b.placeholders()
	fmt.Fprintf(&sb, "WHERE emis_VI.model_type = %s\n", ph())
	fmt.Fprintf(&sb, "    AND emis_IR.model_type = %s\n", ph())
	fmt.Fprintf(&sb, "    AND abundances.name = %s\n", ph())
	fmt.Fprintf(&sb, "    AND shock_params.ref = %s\n", ph())
	fmt.Fprintf(&sb, "    AND shock_params.shck_vel BETWEEN %s AND %s\n", ph(), ph())
	fmt.Fprintf(&sb, "    AND shock_params.preshck_dens = %s\n", ph())
	sb.WriteString("ORDER BY shock_params.shck_vel, shock_params.mag_fld")

	return Statement{
		Family:  f,
		SQL:     sb.String(),
		Args:    []any{string(f), string(f), req.Abundance, b.Reference, float64(req.Window.Min), float64(req.Window.Max), req.Density},
		Columns: aliases,
	}
}

// placeholders returns a generator of successive bind placeholders.
func (b *Builder) placeholders() func() string {
	n := 0
	return func() string {
		n++
		return b.Dialect.FormatPlaceholder(n)
	}
}

// AbundancesStatement lists the abundance sets with models for the reference.
func (b *Builder) AbundancesStatement() Statement {
	ph := b.placeholders()
	return Statement{
		SQL: "SELECT DISTINCT abundances.name\nFROM shock_params\n" +
			"    INNER JOIN abundances ON abundances.AbundID = shock_params.AbundID\n" +
			"WHERE shock_params.ref = " + ph() + "\nORDER BY abundances.name",
		Args:    []any{b.Reference},
		Columns: []string{"name"},
	}
}

// DensitiesStatement lists the preshock densities modelled for one abundance set.
func (b *Builder) DensitiesStatement(abundance string) Statement {
	ph := b.placeholders()
	return Statement{
		SQL: "SELECT DISTINCT shock_params.preshck_dens\nFROM shock_params\n" +
			"    INNER JOIN abundances ON abundances.AbundID = shock_params.AbundID\n" +
			"WHERE shock_params.ref = " + ph() + "\n    AND abundances.name = " + ph() + "\n" +
			"ORDER BY shock_params.preshck_dens",
		Args:    []any{b.Reference, abundance},
		Columns: []string{"preshck_dens"},
	}
}
