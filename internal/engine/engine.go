// Package engine produces diagnostic diagrams end to end: it reads model
// rows from a database or a local emission-line table and shapes them into
// grouped series.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ptero-astro/ptero/internal/query"
	"github.com/ptero-astro/ptero/pkg/adapter"
)

// Engine orchestrates diagram requests.
type Engine struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	runner    *query.Runner
	reference string
	timeout   time.Duration

	logger *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// AdapterConfig describes the model database. It may be nil when only
	// local tables are used.
	AdapterConfig *adapter.Config
	// Reference selects the model grid inside the database.
	Reference string
	// Timeout bounds each database round trip.
	Timeout time.Duration
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine. The database is only connected when a remote
// request first needs it.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		reference: cfg.Reference,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
	if cfg.AdapterConfig != nil {
		e.dbConfig = *cfg.AdapterConfig
	}
	return e
}

// ensureDBConnected lazily connects to the database.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}
	if e.dbConfig.Type == "" {
		return fmt.Errorf("no model database configured\nHint: set source.type in ptero.yaml or pass --table for a local grid")
	}

	e.logger.Debug("connecting to database", "adapter_type", e.dbConfig.Type)

	db, err := query.Open(ctx, e.dbConfig, e.logger)
	if err != nil {
		return err
	}

	e.db = db
	e.dbConnected = true
	e.runner = query.NewRunner(db, query.Options{
		Reference: e.reference,
		Timeout:   e.timeout,
		Logger:    e.logger,
	})

	e.logger.Debug("database connected", "dialect", db.Dialect().Name)
	return nil
}

// Adapter returns the connected database adapter, connecting if needed.
func (e *Engine) Adapter(ctx context.Context) (adapter.Adapter, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	return e.db, nil
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	e.dbMu.Lock()
	defer e.dbMu.Unlock()
	if e.db != nil {
		err := e.db.Close()
		e.db = nil
		e.dbConnected = false
		return err
	}
	return nil
}

// Abundances lists the abundance sets the database holds models for.
func (e *Engine) Abundances(ctx context.Context) ([]string, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	return e.runner.Abundances(ctx)
}

// Densities lists the preshock densities modelled for an abundance set.
func (e *Engine) Densities(ctx context.Context, abundance string) ([]float64, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	return e.runner.Densities(ctx, abundance)
}
