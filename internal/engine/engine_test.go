package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptero-astro/ptero/internal/diagnostic"
	"github.com/ptero-astro/ptero/internal/emission"
	"github.com/ptero-astro/ptero/internal/grouping"
	"github.com/ptero-astro/ptero/internal/mirror"
	"github.com/ptero-astro/ptero/internal/query"
	"github.com/ptero-astro/ptero/internal/testutil"
	"github.com/ptero-astro/ptero/pkg/adapter"
	_ "github.com/ptero-astro/ptero/pkg/adapters/sqlite"
)

// newMirrorEngine loads the test export into a fresh SQLite mirror and
// returns an engine reading from it.
func newMirrorEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	cfg := testutil.SQLiteConfig(t)

	adp, err := query.Open(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, mirror.Migrate(ctx, adp))
	_, err = mirror.Load(ctx, adp, testutil.AllenExport(), nil)
	require.NoError(t, err)
	require.NoError(t, adp.Close())

	e := New(Config{AdapterConfig: &cfg, Logger: testutil.NewTestLogger(t)})
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func solarRequest() diagnostic.Request {
	return diagnostic.Request{
		X:         diagnostic.Ratio("NII", "Ha"),
		Y:         diagnostic.Quantity("S23"),
		Abundance: "Allen2008_Solar",
		Density:   1,
		Window:    diagnostic.Window{Min: 100, Max: 200, Step: 25},
		Shock:     true,
	}
}

func TestEngine_RunShock(t *testing.T) {
	e := newMirrorEngine(t)

	res, err := e.Run(context.Background(), solarRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RequestID)
	assert.False(t, res.IsLocal())
	assert.Equal(t, "NII / Ha", res.XLabel)
	assert.Equal(t, []query.Family{query.FamilyShock}, res.Families)

	groups := res.Groups[query.FamilyShock]
	require.Len(t, groups, 2, "the Gutkin16 model must be filtered out by reference")
	assert.Equal(t, []float64{0.1, 1}, grouping.MagFields(groups))

	strong := groups[1]
	assert.Equal(t, []bool{true, true, false, true, true}, strong.Present, "150 km/s is missing at B=1")

	xs, ys := strong.Points(res.XColumn, res.YColumn)
	assert.InDelta(t, 0.5, xs[0], 1e-12)
	assert.InDelta(t, 3, ys[0], 1e-12)
	assert.True(t, math.IsNaN(xs[2]))

	assert.Len(t, res.Rows(query.FamilyShock), 9)
}

func TestEngine_RunFamilies(t *testing.T) {
	e := newMirrorEngine(t)
	ctx := context.Background()

	t.Run("combined", func(t *testing.T) {
		req := solarRequest()
		req.Precursor = true
		res, err := e.Run(ctx, req)
		require.NoError(t, err)
		require.Equal(t, []query.Family{query.FamilyShockAndPrecursor}, res.Families)

		_, ys := res.Groups[query.FamilyShockAndPrecursor][0].Points(res.XColumn, res.YColumn)
		assert.InDelta(t, 5, ys[0], 1e-12)
	})

	t.Run("independent", func(t *testing.T) {
		req := solarRequest()
		req.Precursor, req.Independent = true, true
		res, err := e.Run(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, res.Paired)

		_, shockY := res.Paired.Shock[0].Points(res.XColumn, res.YColumn)
		_, precY := res.Paired.Precursor[0].Points(res.XColumn, res.YColumn)
		assert.InDelta(t, 3, shockY[0], 1e-12)
		assert.InDelta(t, 4, precY[0], 1e-12)
		assert.NotEmpty(t, res.Paired.Links(res.XColumn, res.YColumn))
	})

	t.Run("coarse window with placeholder", func(t *testing.T) {
		req := solarRequest()
		req.Y = diagnostic.Quantity("O23")
		req.Window = diagnostic.Window{Min: 100, Max: 200, Step: 50}
		res, err := e.Run(ctx, req)
		require.NoError(t, err)

		strong := res.Groups[query.FamilyShock][1]
		assert.Equal(t, []int{100, 150, 200}, strong.Velocities)
		assert.Equal(t, []bool{true, false, true}, strong.Present)

		_, ys := strong.Points(res.XColumn, res.YColumn)
		assert.InDelta(t, 2, ys[0], 1e-12)
		assert.InDelta(t, 1, ys[2], 1e-12)
	})
}

func TestEngine_Catalog(t *testing.T) {
	e := newMirrorEngine(t)
	ctx := context.Background()

	names, err := e.Abundances(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Allen2008_LMC", "Allen2008_Solar"}, names)

	dens, err := e.Densities(ctx, "Allen2008_Solar")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, dens)

	dens, err = e.Densities(ctx, "Allen2008_LMC")
	require.NoError(t, err)
	assert.Equal(t, []float64{10}, dens)
}

func TestEngine_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no database configured", func(t *testing.T) {
		e := New(Config{})
		_, err := e.Run(ctx, solarRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no model database configured")
	})

	t.Run("missing credentials", func(t *testing.T) {
		e := New(Config{AdapterConfig: &adapter.Config{Type: "sqlite"}})
		_, err := e.Abundances(ctx)
		var missing *query.MissingCredentialsError
		assert.True(t, errors.As(err, &missing))
	})

	t.Run("invalid request is rejected before connecting", func(t *testing.T) {
		e := New(Config{})
		req := solarRequest()
		req.Window.Min = 90
		_, err := e.Run(ctx, req)
		var invalid *diagnostic.InvalidWindowError
		assert.True(t, errors.As(err, &invalid))
	})
}

func TestEngine_RunTable(t *testing.T) {
	var velocities []int
	hb, oiii := make([]float64, 0, 37), make([]float64, 0, 37)
	for v := emission.MinVelocity; v <= emission.MaxVelocity; v += emission.VelocityStep {
		velocities = append(velocities, v)
		hb = append(hb, 1)
		oiii = append(oiii, float64(v)/100)
	}
	tbl, err := emission.New(velocities, []string{diagnostic.LineHBeta, diagnostic.LineOIII}, [][]float64{hb, oiii})
	require.NoError(t, err)

	req := diagnostic.Request{
		X:      diagnostic.Ratio(diagnostic.LineOIII, diagnostic.LineHBeta),
		Y:      diagnostic.Ratio(diagnostic.LineHBeta, diagnostic.LineOIII),
		Window: diagnostic.Window{Min: 500, Max: 1000, Step: 250},
	}
	res, err := New(Config{}).RunTable(tbl, req)
	require.NoError(t, err)
	require.True(t, res.IsLocal())
	assert.Equal(t, []int{500, 750, 1000}, res.Diagram.Velocities)
	assert.Equal(t, []float64{5, 7.5, 10}, res.Diagram.X)
	assert.Equal(t, "[O III] λ5007 / Hβ λ4861", res.XLabel)
}
