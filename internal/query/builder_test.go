package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptero-astro/ptero/internal/diagnostic"
	"github.com/ptero-astro/ptero/internal/emission"
	"github.com/ptero-astro/ptero/pkg/adapter"
)

func baseRequest() diagnostic.Request {
	return diagnostic.Request{
		X:         diagnostic.Ratio("NII", "Ha"),
		Y:         diagnostic.Quantity("S23"),
		Abundance: "Allen2008_Solar",
		Density:   1,
		Window:    diagnostic.Window{Min: 200, Max: 600, Step: 50},
		Shock:     true,
	}
}

func TestAxisColumn(t *testing.T) {
	tests := []struct {
		name  string
		axis  diagnostic.AxisSpec
		alias string
		expr  string
	}{
		{
			name:  "quantity",
			axis:  diagnostic.Quantity("O23"),
			alias: "o23",
			expr:  "(emis_VI.OII_7320 + emis_VI.OII_7330) / NULLIF(emis_VI.OIII_5007, 0)",
		},
		{
			name:  "nitrogen quantity uses the 6583 line only",
			axis:  diagnostic.Quantity("NII_Ha"),
			alias: "nii_ha",
			expr:  "emis_VI.NII_6583 / NULLIF(emis_VI.HI_6563, 0)",
		},
		{
			name:  "oxygen over h-beta quantity",
			axis:  diagnostic.Quantity("OIII_Hb"),
			alias: "oiii_hb",
			expr:  "emis_VI.OIII_5007 / NULLIF(emis_VI.HI_4861, 0)",
		},
		{
			name:  "sulphur quantity",
			axis:  diagnostic.Quantity("S23"),
			alias: "s23",
			expr:  "(emis_VI.SII_6716 + emis_VI.SII_6731 + emis_IR.SIII_9069) / NULLIF(emis_VI.HI_4861, 0)",
		},
		{
			name:  "ratio of doublets",
			axis:  diagnostic.Ratio("SII", "Ha"),
			alias: "sii_over_ha",
			expr:  "(emis_VI.SII_6716 + emis_VI.SII_6731) / NULLIF(emis_VI.HI_6563, 0)",
		},
		{
			name:  "single line ratio",
			axis:  diagnostic.Ratio("OIII_5007", "Hb"),
			alias: "oiii_5007_over_hb",
			expr:  "(emis_VI.OIII_5007) / NULLIF(emis_VI.HI_4861, 0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := AxisColumn(tt.axis)
			require.NoError(t, err)
			assert.Equal(t, tt.alias, col.Alias)
			assert.Equal(t, tt.expr, col.Expr)
		})
	}
}

func TestAxisColumn_Errors(t *testing.T) {
	_, err := AxisColumn(diagnostic.Quantity("N2O2"))
	var unknown *diagnostic.UnknownQuantityError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, Quantities(), unknown.Available)

	_, err = AxisColumn(diagnostic.Ratio("Hb", "HeII"))
	var notFound *emission.LineNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "HeII", notFound.Label)
}

func TestFamilies(t *testing.T) {
	req := baseRequest()
	assert.Equal(t, []Family{FamilyShock}, Families(req))

	req.Shock, req.Precursor = false, true
	assert.Equal(t, []Family{FamilyPrecursor}, Families(req))

	req.Shock = true
	assert.Equal(t, []Family{FamilyShockAndPrecursor}, Families(req))

	req.Independent = true
	assert.Equal(t, []Family{FamilyShock, FamilyPrecursor}, Families(req))
}

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder("", &adapter.Dialect{Name: "postgres", Numbered: true})
	assert.Equal(t, DefaultReference, b.Reference)

	stmts, err := b.Build(baseRequest())
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	stmt := stmts[0]
	assert.Equal(t, FamilyShock, stmt.Family)
	assert.Equal(t, []string{"nii_over_ha", "s23"}, stmt.Columns)
	assert.Equal(t, []any{"shock", "shock", "Allen2008_Solar", "Allen08", 200.0, 600.0, 1.0}, stmt.Args)

	assert.True(t, strings.HasPrefix(stmt.SQL, "SELECT\n    shock_params.shck_vel AS shck_vel,"))
	assert.Contains(t, stmt.SQL, "shock_params.mag_fld AS mag_fld\nFROM shock_params")
	assert.Contains(t, stmt.SQL, "INNER JOIN emis_IR ON emis_IR.ModelID = shock_params.ModelID")
	assert.Contains(t, stmt.SQL, "shock_params.shck_vel BETWEEN $5 AND $6")
	assert.Contains(t, stmt.SQL, "shock_params.preshck_dens = $7")
	assert.True(t, strings.HasSuffix(stmt.SQL, "ORDER BY shock_params.shck_vel, shock_params.mag_fld"))
	assert.NotContains(t, stmt.SQL, "Allen2008_Solar", "user values must be bound, not spliced")
}

func TestBuilder_BuildMySQLPlaceholders(t *testing.T) {
	b := NewBuilder("Allen08", &adapter.Dialect{Name: "mysql"})
	stmts, err := b.Build(baseRequest())
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	sql := stmts[0].SQL
	assert.Equal(t, len(stmts[0].Args), strings.Count(sql, "?"))
	assert.NotContains(t, sql, "$")
	assert.Contains(t, sql, "shock_params.shck_vel BETWEEN ? AND ?")
}

func TestBuilder_BuildIndependent(t *testing.T) {
	b := NewBuilder("Gutkin16", nil)
	req := baseRequest()
	req.Precursor, req.Independent = true, true
	req.Y = diagnostic.Ratio("NII", "Ha")

	stmts, err := b.Build(req)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	assert.Equal(t, FamilyShock, stmts[0].Family)
	assert.Equal(t, FamilyPrecursor, stmts[1].Family)
	assert.Equal(t, "precursor", stmts[1].Args[0])
	assert.Equal(t, "Gutkin16", stmts[1].Args[3])
	assert.Equal(t, []string{"nii_over_ha"}, stmts[0].Columns, "identical axes select one column")
	assert.Equal(t, 7, strings.Count(stmts[0].SQL, "?"))
}

func TestBuilder_BuildRejectsInvalidRequest(t *testing.T) {
	b := NewBuilder("", nil)

	req := baseRequest()
	req.Window.Step = 30
	_, err := b.Build(req)
	var invalid *diagnostic.InvalidWindowError
	assert.True(t, errors.As(err, &invalid))

	req = baseRequest()
	req.Y = diagnostic.Quantity("N2")
	_, err = b.Build(req)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "y axis:"))
}

func TestCatalogStatements(t *testing.T) {
	b := NewBuilder("", &adapter.Dialect{Name: "postgres", Numbered: true})

	ab := b.AbundancesStatement()
	assert.Contains(t, ab.SQL, "SELECT DISTINCT abundances.name")
	assert.Contains(t, ab.SQL, "shock_params.ref = $1")
	assert.Equal(t, []any{"Allen08"}, ab.Args)

	dens := b.DensitiesStatement("Allen2008_Solar")
	assert.Contains(t, dens.SQL, "abundances.name = $2")
	assert.Equal(t, []any{"Allen08", "Allen2008_Solar"}, dens.Args)
}

func TestTranslationTables(t *testing.T) {
	assert.Equal(t, []string{"Ha", "Hb", "NII", "OIII_5007", "SII"}, Lines())
	assert.Equal(t, []string{"NII_Ha", "O23", "OIII_Hb", "S23"}, Quantities())
	for _, name := range Quantities() {
		assert.Contains(t, quantityColumns[name], "NULLIF(", "quantity %s must guard its division", name)
	}
}
