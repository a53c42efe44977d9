package commands

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ptero-astro/ptero/internal/cli/output"
	"github.com/ptero-astro/ptero/internal/engine"
	"github.com/ptero-astro/ptero/internal/grouping"
)

// NewSeriesCommand creates the series command.
func NewSeriesCommand() *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print the diagnostic series for a request",
		Long: `Compute the X/Y diagnostic series for shock models and print them.

Models come from the configured model database, grouped by magnetic field
and reindexed on the velocity window; velocities missing from the database
print as NaN. With --table, a local emission-line table is used instead.`,
		Example: `  # S23 against [N II]/Hα for solar shocks
  ptero series --abundance Allen2008_Solar --density 1 \
    --x-num NII --x-den Ha --y-quantity S23

  # Shock and precursor side by side, 200-800 km/s
  ptero series --abundance Allen2008_Solar --shock --precursor --independent \
    --x-quantity O23 --y-quantity S23 --vmin 200 --vmax 800 --vstep 50

  # From a local table, as CSV
  ptero series --table grid.tsv --x-num "[O III] λ5007" --x-den "Hβ λ4861" \
    --y-quantity S23 -o csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeries(cmd, opts)
		},
	}
	addRequestFlags(cmd, opts)
	return cmd
}

func runSeries(cmd *cobra.Command, opts *RequestOptions) error {
	cmdCtx, cleanup := NewCommandContext(cmd)
	defer cleanup()

	res, err := execute(cmd, cmdCtx, opts)
	if err != nil {
		return err
	}
	return renderSeries(cmdCtx.Renderer, res)
}

// execute builds the request and runs it against the table or the database.
func execute(cmd *cobra.Command, cmdCtx *CommandContext, opts *RequestOptions) (*engine.Result, error) {
	req, err := buildRequest(cmd, opts)
	if err != nil {
		return nil, err
	}
	if opts.Table != "" {
		table, err := loadTable(opts.Table, cmdCtx.Cfg.TablesDir)
		if err != nil {
			return nil, err
		}
		return cmdCtx.Engine.RunTable(table, req)
	}
	return cmdCtx.Engine.Run(cmd.Context(), req)
}

func renderSeries(r *output.Renderer, res *engine.Result) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(seriesJSON(res))
	}

	if res.IsLocal() {
		d := res.Diagram
		rows := make([][]string, len(d.Velocities))
		for i, v := range d.Velocities {
			rows[i] = []string{strconv.Itoa(v), formatFloat(d.X[i]), formatFloat(d.Y[i])}
		}
		r.Header(1, fmt.Sprintf("%s vs %s", res.YLabel, res.XLabel))
		return r.Table([]string{"velocity", res.XLabel, res.YLabel}, rows)
	}

	var rows [][]string
	for _, f := range res.Families {
		for _, g := range res.Groups[f] {
			xs, ys := g.Points(res.XColumn, res.YColumn)
			for i, v := range g.Velocities {
				rows = append(rows, []string{string(f), formatFloat(g.MagField), strconv.Itoa(v), formatFloat(xs[i]), formatFloat(ys[i])})
			}
		}
	}
	r.Header(1, fmt.Sprintf("%s, n=%g", res.Request.Abundance, res.Request.Density))
	return r.Table([]string{"family", "mag_fld", "velocity", res.XLabel, res.YLabel}, rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

type seriesOutput struct {
	RequestID string         `json:"request_id"`
	XLabel    string         `json:"x_label"`
	YLabel    string         `json:"y_label"`
	Groups    []groupOutput  `json:"groups,omitempty"`
	Diagram   *diagramOutput `json:"diagram,omitempty"`
}

type groupOutput struct {
	Family     string     `json:"family"`
	MagField   float64    `json:"mag_fld"`
	Velocities []int      `json:"velocities"`
	X          []*float64 `json:"x"`
	Y          []*float64 `json:"y"`
}

type diagramOutput struct {
	Velocities []int      `json:"velocities"`
	X          []*float64 `json:"x"`
	Y          []*float64 `json:"y"`
}

func seriesJSON(res *engine.Result) seriesOutput {
	out := seriesOutput{RequestID: res.RequestID, XLabel: res.XLabel, YLabel: res.YLabel}
	if res.IsLocal() {
		out.Diagram = &diagramOutput{
			Velocities: res.Diagram.Velocities,
			X:          nullable(res.Diagram.X),
			Y:          nullable(res.Diagram.Y),
		}
		return out
	}
	for _, f := range res.Families {
		for _, g := range res.Groups[f] {
			out.Groups = append(out.Groups, groupJSON(string(f), g, res.XColumn, res.YColumn))
		}
	}
	return out
}

func groupJSON(family string, g grouping.GroupedSeries, x, y string) groupOutput {
	xs, ys := g.Points(x, y)
	return groupOutput{
		Family:     family,
		MagField:   g.MagField,
		Velocities: g.Velocities,
		X:          nullable(xs),
		Y:          nullable(ys),
	}
}

// nullable maps NaN to null, which JSON cannot otherwise encode.
func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = &values[i]
		}
	}
	return out
}
