package render

import (
	"fmt"

	"github.com/ptero-astro/ptero/internal/engine"
	"github.com/ptero-astro/ptero/internal/grouping"
	"github.com/ptero-astro/ptero/internal/overlay"
	"github.com/ptero-astro/ptero/internal/query"
)

var familyStyles = map[query.Family]Style{
	query.FamilyShock:             Solid,
	query.FamilyPrecursor:         Dashed,
	query.FamilyShockAndPrecursor: Dotted,
}

// FigureFor lays out the curves of a result. ov may be nil.
func FigureFor(res *engine.Result, ov *overlay.Points, logScale bool) Figure {
	w := res.Request.Window
	fig := Figure{
		XLabel:   res.XLabel,
		YLabel:   res.YLabel,
		VMin:     float64(w.Min),
		VMax:     float64(w.Max),
		Overlay:  ov,
		LogScale: logScale,
	}

	if res.IsLocal() {
		d := res.Diagram
		fig.Title = fmt.Sprintf("%s vs %s", d.YLabel, d.XLabel)
		fig.Curves = append(fig.Curves, Curve{
			Label:      "Table",
			X:          d.X,
			Y:          d.Y,
			Velocities: d.Velocities,
		})
		return fig
	}

	fig.Title = fmt.Sprintf("%s, n=%g cm⁻³", res.Request.Abundance, res.Request.Density)
	for _, f := range res.Families {
		groups := res.Groups[f]
		for _, g := range groups {
			xs, ys := g.Points(res.XColumn, res.YColumn)
			fig.Curves = append(fig.Curves, Curve{
				Label:      fmt.Sprintf("%s B=%g", FamilyTitle(string(f)), g.MagField),
				X:          xs,
				Y:          ys,
				Velocities: g.Velocities,
				Style:      familyStyles[f],
			})
		}
		fig.Connectors = append(fig.Connectors, grouping.Connectors(groups, res.XColumn, res.YColumn)...)
	}
	if res.Paired != nil {
		fig.Links = res.Paired.Links(res.XColumn, res.YColumn)
	}
	return fig
}
