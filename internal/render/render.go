// Package render draws diagnostic diagrams with gonum/plot.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/ptero-astro/ptero/internal/grouping"
	"github.com/ptero-astro/ptero/internal/overlay"
)

// Style is the line style of one model family.
type Style int

// Family line styles.
const (
	Solid Style = iota
	Dashed
	Dotted
)

// Curve is one piecewise-linear model track colored by velocity.
type Curve struct {
	Label      string
	X          []float64
	Y          []float64
	Velocities []int
	Style      Style
}

// Figure is everything needed to draw one diagram.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	// VMin and VMax bound the velocity color scale.
	VMin, VMax float64
	Curves     []Curve
	// Connectors join equal-velocity points across magnetic-field groups.
	Connectors []grouping.Segment
	// Links join shock and precursor groups in independent mode.
	Links    []grouping.Segment
	Overlay  *overlay.Points
	LogScale bool
}

// VelocityLabel titles the color bar.
const VelocityLabel = "Shock velocity / km s⁻¹"

var (
	connectorColor = color.Gray{Y: 160}
	linkColor      = color.Gray{Y: 200}
	titleCaser     = cases.Title(language.English)
)

// FamilyTitle turns a family identifier such as shock_plus_precursor into
// a display name.
func FamilyTitle(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// Build lays out a figure as a plot.
func Build(fig Figure) (*plot.Plot, error) {
	p, _, err := build(fig)
	return p, err
}

// build also returns the number of data layers drawn.
func build(fig Figure) (*plot.Plot, int, error) {
	cmap, err := velocityMap(fig)
	if err != nil {
		return nil, 0, err
	}

	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = fig.XLabel
	p.Y.Label.Text = fig.YLabel
	p.Add(plotter.NewGrid())

	b := &builder{plot: p, log: fig.LogScale}

	for _, s := range fig.Links {
		if err := b.segment(s, linkColor, Dotted, 0.5); err != nil {
			return nil, 0, err
		}
	}
	for _, s := range fig.Connectors {
		if err := b.segment(s, connectorColor, Solid, 0.5); err != nil {
			return nil, 0, err
		}
	}
	for _, c := range fig.Curves {
		if err := b.curve(c, cmap); err != nil {
			return nil, 0, err
		}
	}
	if fig.Overlay != nil {
		if err := b.scatter(*fig.Overlay, cmap); err != nil {
			return nil, 0, err
		}
	}

	if err := b.legend(fig); err != nil {
		return nil, 0, err
	}

	if fig.LogScale && b.drawn > 0 {
		p.X.Scale = plot.LogScale{}
		p.Y.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	return p, b.drawn, nil
}

func velocityMap(fig Figure) (palette.ColorMap, error) {
	if fig.VMin >= fig.VMax {
		return nil, fmt.Errorf("invalid color range [%g, %g]", fig.VMin, fig.VMax)
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(fig.VMin)
	cmap.SetMax(fig.VMax)
	return cmap, nil
}

// hasColorScale reports whether anything in fig is colored by velocity.
func hasColorScale(fig Figure) bool {
	return len(fig.Curves) > 0 || (fig.Overlay != nil && fig.Overlay.Len() > 0)
}

// colorBar lays out the velocity scale as a narrow plot of its own.
func colorBar(fig Figure) (*plot.Plot, error) {
	cmap, err := velocityMap(fig)
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true})
	p.HideX()
	p.X.Padding = 0
	p.Y.Label.Text = VelocityLabel
	return p, nil
}

type builder struct {
	plot  *plot.Plot
	log   bool
	drawn int
}

// usable reports whether a point can be placed on the current axes.
func (b *builder) usable(x, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return false
	}
	return !b.log || (x > 0 && y > 0)
}

func (b *builder) segment(s grouping.Segment, c color.Color, style Style, width float64) error {
	if !b.usable(s.X0, s.Y0) || !b.usable(s.X1, s.Y1) {
		return nil
	}
	return b.line(plotter.XYs{{X: s.X0, Y: s.Y0}, {X: s.X1, Y: s.Y1}}, c, style, width)
}

func (b *builder) line(xys plotter.XYs, c color.Color, style Style, width float64) error {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("failed to create line: %w", err)
	}
	applyStyle(&l.LineStyle, c, style, width)
	b.plot.Add(l)
	b.drawn++
	return nil
}

func applyStyle(ls *draw.LineStyle, c color.Color, style Style, width float64) {
	ls.Color = c
	ls.Width = vg.Points(width)
	switch style {
	case Dashed:
		ls.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	case Dotted:
		ls.Dashes = []vg.Length{vg.Points(1), vg.Points(2)}
	}
}

// curve draws one segment per consecutive pair of defined points, so a
// missing velocity leaves a gap.
func (b *builder) curve(c Curve, cmap palette.ColorMap) error {
	n := min(len(c.X), len(c.Y), len(c.Velocities))
	for i := 1; i < n; i++ {
		if !b.usable(c.X[i-1], c.Y[i-1]) || !b.usable(c.X[i], c.Y[i]) {
			continue
		}
		mid := float64(c.Velocities[i-1]+c.Velocities[i]) / 2
		err := b.line(plotter.XYs{{X: c.X[i-1], Y: c.Y[i-1]}, {X: c.X[i], Y: c.Y[i]}}, colorAt(cmap, mid), c.Style, 1.5)
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) scatter(pts overlay.Points, cmap palette.ColorMap) error {
	var xys plotter.XYs
	var colors []color.Color
	for i := range pts.X {
		if !b.usable(pts.X[i], pts.Y[i]) {
			continue
		}
		xys = append(xys, plotter.XY{X: pts.X[i], Y: pts.Y[i]})
		colors = append(colors, withAlpha(colorAt(cmap, pts.Color[i]), 128))
	}
	if len(xys) == 0 {
		return nil
	}

	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("failed to create overlay: %w", err)
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: colors[i], Radius: vg.Points(1.5), Shape: draw.CircleGlyph{}}
	}
	b.plot.Add(s)
	b.drawn++
	return nil
}

// legend adds one entry per line style in use.
func (b *builder) legend(fig Figure) error {
	seen := make(map[Style]bool)
	for _, c := range fig.Curves {
		name := c.Label
		if i := strings.Index(name, " B="); i >= 0 {
			name = name[:i]
		}
		if seen[c.Style] || name == "" {
			continue
		}
		seen[c.Style] = true
		if err := b.legendLine(name, color.Black, c.Style); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) legendLine(label string, c color.Color, style Style) error {
	l, err := plotter.NewLine(plotter.XYs{})
	if err != nil {
		return fmt.Errorf("failed to create legend entry: %w", err)
	}
	applyStyle(&l.LineStyle, c, style, 1.5)
	b.plot.Legend.Add(label, l)
	return nil
}

func colorAt(cmap palette.ColorMap, v float64) color.Color {
	v = math.Max(cmap.Min(), math.Min(cmap.Max(), v))
	c, err := cmap.At(v)
	if err != nil {
		return color.Black
	}
	return c
}

func withAlpha(c color.Color, a uint8) color.Color {
	r, g, bl, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: a}
}

// colorBarWidth is the share of the figure width given to the color bar.
const colorBarWidth = 0.16

// compose draws the diagram and, when something is colored by velocity, the
// color bar to its right.
func compose(fig Figure, format string, width, height float64) (vg.CanvasWriterTo, error) {
	p, err := Build(fig)
	if err != nil {
		return nil, err
	}
	w, h := vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch
	c, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	dc := draw.New(c)

	if !hasColorScale(fig) {
		p.Draw(dc)
		return c, nil
	}
	bar, err := colorBar(fig)
	if err != nil {
		return nil, err
	}
	barW := min(w*colorBarWidth, vg.Inch)
	p.Draw(draw.Crop(dc, 0, -barW, 0, 0))
	bar.Draw(draw.Crop(dc, w-barW, 0, 0, 0))
	return c, nil
}

// Write encodes the figure in format (png, svg, pdf, ...) at the given size
// in inches.
func Write(w io.Writer, fig Figure, format string, width, height float64) error {
	c, err := compose(fig, format, width, height)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write figure: %w", err)
	}
	return nil
}

// Save writes the figure to path; the extension selects the format.
func Save(path string, fig Figure, width, height float64) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	c, err := compose(fig, format, width, height)
	if err != nil {
		return err
	}

	f, err := os.Create(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return fmt.Errorf("failed to save figure: %w", err)
	}
	if _, err := c.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to save figure: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to save figure: %w", err)
	}
	return nil
}
