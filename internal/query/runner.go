package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ptero-astro/ptero/internal/diagnostic"
	"github.com/ptero-astro/ptero/internal/grouping"
	"github.com/ptero-astro/ptero/pkg/adapter"
)

// DefaultTimeout bounds one Fetch when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Options configures a Runner.
type Options struct {
	Reference string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Runner executes statements through a connected adapter.
type Runner struct {
	adapter adapter.Adapter
	builder *Builder
	timeout time.Duration
	logger  *slog.Logger
}

// Result holds the rows of every family a request read.
type Result struct {
	Families []Family
	XColumn  string
	YColumn  string
	Rows     map[Family][]grouping.Row
}

// Open creates and connects the adapter for cfg. Missing credentials are
// reported before any connection attempt.
func Open(ctx context.Context, cfg adapter.Config, logger *slog.Logger) (adapter.Adapter, error) {
	adp, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if missing := adp.MissingParams(cfg); len(missing) > 0 {
		return nil, &MissingCredentialsError{Source: cfg.Type, Missing: missing}
	}
	if err := adp.Connect(ctx, cfg); err != nil {
		return nil, &QueryFailedError{Err: err}
	}
	return adp, nil
}

// NewRunner creates a Runner over a connected adapter.
func NewRunner(adp adapter.Adapter, opts Options) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		adapter: adp,
		builder: NewBuilder(opts.Reference, adp.Dialect()),
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

// Builder returns the statement builder the runner uses.
func (r *Runner) Builder() *Builder {
	return r.builder
}

// Fetch builds the statements for req and runs them. Independent requests
// run both families concurrently and fail if either fails.
func (r *Runner) Fetch(ctx context.Context, req diagnostic.Request) (*Result, error) {
	stmts, err := r.builder.Build(req)
	if err != nil {
		return nil, err
	}
	x, _ := AxisColumn(req.X)
	y, _ := AxisColumn(req.Y)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows := make([][]grouping.Row, len(stmts))
	g, gctx := errgroup.WithContext(ctx)
	for i, stmt := range stmts {
		g.Go(func() error {
			start := time.Now()
			out, err := r.fetch(gctx, stmt)
			if err != nil {
				return &QueryFailedError{Family: stmt.Family, Err: err}
			}
			r.logger.Debug("fetched models",
				slog.String("family", string(stmt.Family)),
				slog.Int("rows", len(out)),
				slog.Duration("elapsed", time.Since(start)))
			rows[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		XColumn: x.Alias,
		YColumn: y.Alias,
		Rows:    make(map[Family][]grouping.Row, len(stmts)),
	}
	for i, stmt := range stmts {
		res.Families = append(res.Families, stmt.Family)
		res.Rows[stmt.Family] = rows[i]
	}
	return res, nil
}

func (r *Runner) fetch(ctx context.Context, stmt Statement) ([]grouping.Row, error) {
	r.logger.Debug("running query", slog.String("family", string(stmt.Family)), slog.String("sql", stmt.SQL))

	rows, err := r.adapter.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, withContext(ctx, err)
	}
	defer func() { _ = rows.Close() }()

	dest := make([]sql.NullFloat64, len(stmt.Columns)+2)
	ptrs := make([]any, len(dest))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	var out []grouping.Row
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		row := grouping.Row{
			Velocity: nullToNaN(dest[0]),
			MagField: nullToNaN(dest[len(dest)-1]),
			Values:   make(map[string]float64, len(stmt.Columns)),
		}
		for i, alias := range stmt.Columns {
			row.Values[alias] = nullToNaN(dest[i+1])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, withContext(ctx, err)
	}
	return out, nil
}

// withContext prefers the context error so a timeout is reported as such
// whatever the driver wrapped it in.
func withContext(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}

func nullToNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// Abundances lists the abundance sets available for the configured reference.
func (r *Runner) Abundances(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stmt := r.builder.AbundancesStatement()
	rows, err := r.adapter.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, &QueryFailedError{Err: withContext(ctx, err)}
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryFailedError{Err: err}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryFailedError{Err: withContext(ctx, err)}
	}
	return names, nil
}

// Densities lists the preshock densities modelled for one abundance set.
func (r *Runner) Densities(ctx context.Context, abundance string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stmt := r.builder.DensitiesStatement(abundance)
	rows, err := r.adapter.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, &QueryFailedError{Err: withContext(ctx, err)}
	}
	defer func() { _ = rows.Close() }()

	var out []float64
	for rows.Next() {
		var d float64
		if err := rows.Scan(&d); err != nil {
			return nil, &QueryFailedError{Err: err}
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryFailedError{Err: withContext(ctx, err)}
	}
	return out, nil
}
