package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ptero-astro/ptero/internal/diagnostic"
	"github.com/ptero-astro/ptero/internal/emission"
	"github.com/ptero-astro/ptero/internal/grouping"
	"github.com/ptero-astro/ptero/internal/query"
)

// Result is the outcome of one request. Remote requests fill Groups (and
// Paired in independent mode); local table requests fill Diagram.
type Result struct {
	RequestID string
	Request   diagnostic.Request

	XLabel  string
	YLabel  string
	XColumn string
	YColumn string

	Families []query.Family
	Groups   map[query.Family][]grouping.GroupedSeries
	Paired   *grouping.Paired

	Diagram *diagnostic.Diagram
}

// IsLocal reports whether the result came from a local table.
func (r *Result) IsLocal() bool {
	return r.Diagram != nil
}

// Run fetches the models for req from the database and groups them by
// magnetic field.
func (e *Engine) Run(ctx context.Context, req diagnostic.Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	logger := e.logger.With(slog.String("request_id", id))
	start := time.Now()

	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	logger.Info("running request",
		slog.String("x", req.X.String()),
		slog.String("y", req.Y.String()),
		slog.String("abundance", req.Abundance),
		slog.Float64("density", req.Density))

	fetched, err := e.runner.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RequestID: id,
		Request:   req,
		XLabel:    req.X.Label(),
		YLabel:    req.Y.Label(),
		XColumn:   fetched.XColumn,
		YColumn:   fetched.YColumn,
		Families:  fetched.Families,
		Groups:    make(map[query.Family][]grouping.GroupedSeries, len(fetched.Families)),
	}

	if req.Independent {
		paired, err := grouping.Pair(fetched.Rows[query.FamilyShock], fetched.Rows[query.FamilyPrecursor], req.Window)
		if err != nil {
			return nil, err
		}
		res.Paired = &paired
		res.Groups[query.FamilyShock] = paired.Shock
		res.Groups[query.FamilyPrecursor] = paired.Precursor
	} else {
		for _, f := range fetched.Families {
			groups, err := grouping.Group(fetched.Rows[f], req.Window)
			if err != nil {
				return nil, fmt.Errorf("%s models: %w", f, err)
			}
			res.Groups[f] = groups
		}
	}

	logger.Debug("request complete",
		slog.Int("groups", res.GroupCount()),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}

// RunTable extracts the diagram for req from a local emission-line table.
// Only the axes and the window of req are used.
func (e *Engine) RunTable(table *emission.Table, req diagnostic.Request) (*Result, error) {
	id := uuid.New().String()
	d, err := diagnostic.ExtractDiagram(table, req.X, req.Y, req.Window)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("extracted diagram",
		slog.String("request_id", id),
		slog.Int("points", len(d.Velocities)))

	return &Result{
		RequestID: id,
		Request:   req,
		XLabel:    d.XLabel,
		YLabel:    d.YLabel,
		Diagram:   &d,
	}, nil
}

// GroupCount returns the number of magnetic-field groups across families.
func (r *Result) GroupCount() int {
	n := 0
	for _, groups := range r.Groups {
		n += len(groups)
	}
	return n
}

// Rows flattens the groups of one family back into model rows.
func (r *Result) Rows(f query.Family) []grouping.Row {
	return grouping.Flatten(r.Groups[f])
}
