package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ptero-astro/ptero/internal/diagnostic"
	"github.com/ptero-astro/ptero/internal/emission"
)

// RequestOptions holds the flags that describe one diagram.
type RequestOptions struct {
	RequestFile string
	Table       string

	XQuantity string
	XNum      string
	XDen      string
	YQuantity string
	YNum      string
	YDen      string

	Abundance string
	Density   float64

	VMin  int
	VMax  int
	VStep int

	Shock       bool
	Precursor   bool
	Independent bool
}

func addRequestFlags(cmd *cobra.Command, opts *RequestOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.RequestFile, "request", "", "YAML file describing the request (flags override it)")
	f.StringVar(&opts.Table, "table", "", "Local emission-line table (TSV) instead of the model database")

	f.StringVar(&opts.XQuantity, "x-quantity", "", "X axis quantity (O23, S23, ...)")
	f.StringVar(&opts.XNum, "x-num", "", "X axis ratio numerator")
	f.StringVar(&opts.XDen, "x-den", "", "X axis ratio denominator")
	f.StringVar(&opts.YQuantity, "y-quantity", "", "Y axis quantity (O23, S23, ...)")
	f.StringVar(&opts.YNum, "y-num", "", "Y axis ratio numerator")
	f.StringVar(&opts.YDen, "y-den", "", "Y axis ratio denominator")

	f.StringVar(&opts.Abundance, "abundance", "", "Abundance set (see 'ptero abundances')")
	f.Float64Var(&opts.Density, "density", 1, "Preshock density in cm^-3 (see 'ptero densities')")

	f.IntVar(&opts.VMin, "vmin", diagnostic.DefaultWindow.Min, "Lowest shock velocity in km/s")
	f.IntVar(&opts.VMax, "vmax", diagnostic.DefaultWindow.Max, "Highest shock velocity in km/s")
	f.IntVar(&opts.VStep, "vstep", diagnostic.DefaultWindow.Step, "Velocity step in km/s")

	f.BoolVar(&opts.Shock, "shock", false, "Include shock models")
	f.BoolVar(&opts.Precursor, "precursor", false, "Include precursor models")
	f.BoolVar(&opts.Independent, "independent", false, "Plot shock and precursor separately, linked per velocity (requires --shock and --precursor)")

	cmd.MarkFlagsMutuallyExclusive("x-quantity", "x-num")
	cmd.MarkFlagsMutuallyExclusive("x-quantity", "x-den")
	cmd.MarkFlagsMutuallyExclusive("y-quantity", "y-num")
	cmd.MarkFlagsMutuallyExclusive("y-quantity", "y-den")
	cmd.MarkFlagsMutuallyExclusive("table", "abundance")

	_ = cmd.RegisterFlagCompletionFunc("x-quantity", completeQuantities)
	_ = cmd.RegisterFlagCompletionFunc("y-quantity", completeQuantities)
}

func completeQuantities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return diagnostic.Quantities(), cobra.ShellCompDirectiveNoFileComp
}

// buildRequest starts from the request file, if any, and applies every
// explicitly set flag on top.
func buildRequest(cmd *cobra.Command, opts *RequestOptions) (diagnostic.Request, error) {
	var req diagnostic.Request
	if opts.RequestFile != "" {
		var err error
		req, err = diagnostic.LoadRequest(opts.RequestFile)
		if err != nil {
			return diagnostic.Request{}, err
		}
	}

	f := cmd.Flags()
	changed := func(names ...string) bool {
		for _, n := range names {
			if f.Changed(n) {
				return true
			}
		}
		return false
	}

	if changed("x-quantity") {
		req.X = diagnostic.Quantity(opts.XQuantity)
	} else if changed("x-num", "x-den") {
		req.X = diagnostic.Ratio(opts.XNum, opts.XDen)
	}
	if changed("y-quantity") {
		req.Y = diagnostic.Quantity(opts.YQuantity)
	} else if changed("y-num", "y-den") {
		req.Y = diagnostic.Ratio(opts.YNum, opts.YDen)
	}

	if changed("abundance") || req.Abundance == "" {
		req.Abundance = opts.Abundance
	}
	if changed("density") || req.Density == 0 {
		req.Density = opts.Density
	}

	if req.Window.IsZero() {
		req.Window = diagnostic.Window{Min: opts.VMin, Max: opts.VMax, Step: opts.VStep}
	} else {
		if changed("vmin") {
			req.Window.Min = opts.VMin
		}
		if changed("vmax") {
			req.Window.Max = opts.VMax
		}
		if changed("vstep") {
			req.Window.Step = opts.VStep
		}
	}

	if changed("shock") {
		req.Shock = opts.Shock
	}
	if changed("precursor") {
		req.Precursor = opts.Precursor
	}
	if changed("independent") {
		req.Independent = opts.Independent
	}

	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return diagnostic.Request{}, err
	}
	if opts.Table == "" && req.Abundance == "" {
		return diagnostic.Request{}, fmt.Errorf("no abundance selected\nHint: Use --abundance (see 'ptero abundances') or --table for a local grid")
	}
	return req, nil
}

// resolveTable finds a table path as given or inside the tables directory.
func resolveTable(path, tablesDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	candidate := filepath.Join(tablesDir, path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

func loadTable(path, tablesDir string) (*emission.Table, error) {
	return emission.LoadFile(resolveTable(path, tablesDir))
}
