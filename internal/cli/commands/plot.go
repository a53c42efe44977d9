package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ptero-astro/ptero/internal/engine"
	"github.com/ptero-astro/ptero/internal/overlay"
	"github.com/ptero-astro/ptero/internal/render"
)

// PlotOptions holds options for the plot command.
type PlotOptions struct {
	Request RequestOptions
	Out     string
	FITS    []string
	Mask    string
	Watch   bool
}

// NewPlotCommand creates the plot command.
func NewPlotCommand() *cobra.Command {
	opts := &PlotOptions{}

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render a diagnostic diagram",
		Long: `Render model curves for a request as an image.

Each magnetic-field group is drawn as a curve colored by shock velocity,
with gray connectors between consecutive groups. Observed maps can be
overlaid from FITS files: --fits takes the x, y and color files, and --mask
an optional bad-pixel mask.

With --table and --watch the figure is redrawn whenever the table changes.`,
		Example: `  ptero plot --abundance Allen2008_Solar --x-num NII --x-den Ha \
    --y-quantity S23 --out s23.png

  ptero plot --table grid.tsv --x-quantity O23 --y-quantity S23 \
    --fits o23.fits,s23.fits,sigma.fits --mask bad.fits --out overlay.svg

  ptero plot --table grid.tsv --x-quantity O23 --y-quantity S23 --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlot(cmd, opts)
		},
	}
	addRequestFlags(cmd, &opts.Request)
	cmd.Flags().StringVarP(&opts.Out, "out", "O", "", "Output file (default: diagram.<format>)")
	cmd.Flags().StringSliceVar(&opts.FITS, "fits", nil, "FITS overlay files: x,y,color")
	cmd.Flags().StringVar(&opts.Mask, "mask", "", "FITS bad-pixel mask for the overlay")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Redraw when the --table file changes")
	cmd.Flags().Float64("width", 0, "Figure width in inches")
	cmd.Flags().Float64("height", 0, "Figure height in inches")
	cmd.Flags().String("format", "", "Image format when --out has no extension (png, svg, pdf)")
	cmd.Flags().Bool("log-scale", true, "Logarithmic axes")
	cmd.MarkFlagsRequiredTogether("watch", "table")

	return cmd
}

func runPlot(cmd *cobra.Command, opts *PlotOptions) error {
	cmdCtx, cleanup := NewCommandContext(cmd)
	defer cleanup()
	r := cmdCtx.Renderer

	if len(opts.FITS) != 0 && len(opts.FITS) != 3 {
		return fmt.Errorf("--fits takes exactly three files (x,y,color), got %d", len(opts.FITS))
	}
	if opts.Mask != "" && len(opts.FITS) == 0 {
		return fmt.Errorf("--mask requires --fits")
	}

	out := opts.Out
	if out == "" {
		out = "diagram." + cmdCtx.Cfg.Plot.Format
	} else if filepath.Ext(out) == "" {
		out += "." + cmdCtx.Cfg.Plot.Format
	}

	var ov *overlay.Points
	if len(opts.FITS) == 3 {
		pts, err := overlay.Load(opts.FITS[0], opts.FITS[1], opts.FITS[2], opts.Mask)
		if err != nil {
			return fmt.Errorf("failed to load overlay: %w", err)
		}
		ov = &pts
		cmdCtx.Logger.Debug("loaded overlay", slog.Int("points", pts.Len()))
	}

	draw := func() error {
		res, err := execute(cmd, cmdCtx, &opts.Request)
		if err != nil {
			return err
		}
		if ov != nil {
			warnUnmatchedAxes(cmdCtx, res)
		}
		fig := render.FigureFor(res, ov, cmdCtx.Cfg.Plot.LogScale)
		if err := render.Save(out, fig, cmdCtx.Cfg.Plot.Width, cmdCtx.Cfg.Plot.Height); err != nil {
			return err
		}
		r.Success(fmt.Sprintf("Wrote %s", out))
		return nil
	}

	if err := draw(); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	table := resolveTable(opts.Request.Table, cmdCtx.Cfg.TablesDir)
	r.Muted(fmt.Sprintf("Watching %s (Ctrl-C to stop)", table))
	return watchFile(cmd.Context(), table, cmdCtx.Logger, func() {
		if err := draw(); err != nil {
			r.Error(err.Error())
		}
	})
}

// warnUnmatchedAxes reports axes whose label has no observed-map counterpart.
func warnUnmatchedAxes(cmdCtx *CommandContext, res *engine.Result) {
	for _, label := range []string{res.XLabel, res.YLabel} {
		if _, ok := overlay.FITSLabel(label); !ok {
			cmdCtx.Renderer.Warning(fmt.Sprintf("axis %q has no matching observed map; check the overlay files", label))
		}
	}
}

// watchFile calls onChange each time path is written or replaced, until ctx
// is done. The parent directory is watched so editors that swap files are
// still seen.
func watchFile(ctx context.Context, path string, logger *slog.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			logger.Debug("table changed", slog.String("path", ev.Name), slog.String("op", strings.ToLower(ev.Op.String())))
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}
