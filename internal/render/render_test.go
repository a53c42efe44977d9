package render

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptero-astro/ptero/internal/diagnostic"
	"github.com/ptero-astro/ptero/internal/engine"
	"github.com/ptero-astro/ptero/internal/grouping"
	"github.com/ptero-astro/ptero/internal/overlay"
	"github.com/ptero-astro/ptero/internal/query"
)

func testFigure() Figure {
	return Figure{
		Title:  "test",
		XLabel: "x",
		YLabel: "y",
		VMin:   100,
		VMax:   200,
		Curves: []Curve{{
			Label:      "Shock B=1",
			X:          []float64{1, 2, math.NaN(), 4},
			Y:          []float64{1, 2, 3, 4},
			Velocities: []int{100, 125, 150, 175},
		}},
		Connectors: []grouping.Segment{{X0: 1, Y0: 1, X1: 2, Y1: 2, Velocity: 100}},
	}
}

func TestFamilyTitle(t *testing.T) {
	assert.Equal(t, "Shock", FamilyTitle("shock"))
	assert.Equal(t, "Shock Plus Precursor", FamilyTitle("shock_plus_precursor"))
}

func TestBuild(t *testing.T) {
	p, drawn, err := build(testFigure())
	require.NoError(t, err)
	assert.Equal(t, "test", p.Title.Text)
	assert.Equal(t, "x", p.X.Label.Text)
	// connector and the single defined segment
	assert.Equal(t, 2, drawn)
}

func TestBuild_LogScaleSkipsNonPositive(t *testing.T) {
	fig := testFigure()
	fig.LogScale = true
	fig.Curves[0].X = []float64{-1, 2, 3, 4}
	_, drawn, err := build(fig)
	require.NoError(t, err)
	// connector plus 2->3 and 3->4
	assert.Equal(t, 3, drawn)
}

func TestBuild_InvalidRange(t *testing.T) {
	fig := testFigure()
	fig.VMin = fig.VMax
	_, err := Build(fig)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid color range")
}

func TestBuild_Overlay(t *testing.T) {
	fig := testFigure()
	fig.Overlay = &overlay.Points{X: []float64{1, math.NaN()}, Y: []float64{1, 1}, Color: []float64{150, 150}}
	_, drawn, err := build(fig)
	require.NoError(t, err)
	assert.Equal(t, 3, drawn)
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testFigure(), "svg", 4, 3))
	assert.Contains(t, buf.String(), "<svg")
}

func TestColorBar(t *testing.T) {
	bar, err := colorBar(testFigure())
	require.NoError(t, err)
	assert.Equal(t, VelocityLabel, bar.Y.Label.Text)
	assert.Equal(t, 100.0, bar.Y.Min)
	assert.Equal(t, 200.0, bar.Y.Max)

	fig := testFigure()
	fig.VMax = fig.VMin
	_, err = colorBar(fig)
	require.Error(t, err)
}

func TestHasColorScale(t *testing.T) {
	assert.True(t, hasColorScale(testFigure()))
	assert.False(t, hasColorScale(Figure{VMin: 100, VMax: 200}))
	assert.True(t, hasColorScale(Figure{VMin: 100, VMax: 200, Overlay: &overlay.Points{X: []float64{1}, Y: []float64{1}, Color: []float64{1}}}))
}

func TestWrite_DrawsColorBar(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testFigure(), "svg", 5, 3))
	assert.Contains(t, buf.String(), "Shock velocity")

	buf.Reset()
	require.NoError(t, Write(&buf, Figure{Title: "empty", VMin: 100, VMax: 200}, "svg", 5, 3))
	assert.NotContains(t, buf.String(), "Shock velocity")
}

func TestSave_UnknownExtension(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "diagram.bmp"), testFigure(), 4, 3)
	require.Error(t, err)
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagram.png")
	require.NoError(t, Save(path, testFigure(), 4, 3))
	assert.FileExists(t, path)
}

func TestFigureFor_Remote(t *testing.T) {
	w := diagnostic.Window{Min: 100, Max: 150, Step: 25}
	rows := []grouping.Row{
		{Velocity: 100, MagField: 0.1, Values: map[string]float64{"x": 1, "y": 1}},
		{Velocity: 125, MagField: 0.1, Values: map[string]float64{"x": 2, "y": 2}},
		{Velocity: 100, MagField: 1, Values: map[string]float64{"x": 3, "y": 3}},
	}
	groups, err := grouping.Group(rows, w)
	require.NoError(t, err)

	res := &engine.Result{
		Request:  diagnostic.Request{Abundance: "Solar", Density: 1, Window: w},
		XLabel:   "X",
		YLabel:   "Y",
		XColumn:  "x",
		YColumn:  "y",
		Families: []query.Family{query.FamilyPrecursor},
		Groups:   map[query.Family][]grouping.GroupedSeries{query.FamilyPrecursor: groups},
	}

	fig := FigureFor(res, nil, true)
	assert.Equal(t, 100.0, fig.VMin)
	assert.Equal(t, 150.0, fig.VMax)
	require.Len(t, fig.Curves, 2)
	assert.Equal(t, "Precursor B=0.1", fig.Curves[0].Label)
	assert.Equal(t, Dashed, fig.Curves[0].Style)
	assert.Equal(t, []int{100, 125, 150}, fig.Curves[1].Velocities)
	assert.Len(t, fig.Connectors, 1)
	assert.Empty(t, fig.Links)
	assert.Contains(t, fig.Title, "Solar")
}

func TestFigureFor_Local(t *testing.T) {
	res := &engine.Result{
		Request: diagnostic.Request{Window: diagnostic.DefaultWindow},
		XLabel:  "A",
		YLabel:  "B",
		Diagram: &diagnostic.Diagram{XLabel: "A", YLabel: "B", X: []float64{1, 2}, Y: []float64{3, 4}, Velocities: []int{100, 125}},
	}
	fig := FigureFor(res, nil, false)
	require.Len(t, fig.Curves, 1)
	assert.Equal(t, "B vs A", fig.Title)
	assert.Equal(t, 1000.0, fig.VMax)
}
