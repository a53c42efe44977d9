// Package duckdb provides a DuckDB adapter for reading a local copy of the
// shock-model database.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/ptero-astro/ptero/pkg/adapter"
)

var dialect = &adapter.Dialect{Name: "duckdb"}

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the DuckDB dialect settings.
func (a *Adapter) Dialect() *adapter.Dialect {
	return dialect
}

// MissingParams requires a database file; an empty in-memory database has
// no models to query.
func (a *Adapter) MissingParams(cfg adapter.Config) []string {
	return adapter.MissingFields(cfg, "path")
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}
	return nil
}

func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(p.Settings))
	for k := range p.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := a.Exec(ctx, buildSetSQL(k, p.Settings[k])); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}

func buildSetSQL(key, value string) string {
	return fmt.Sprintf("SET %s = '%s'", key, strings.ReplaceAll(value, "'", "''"))
}

// LoadCSV appends a CSV file to an existing table with read_csv_auto.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	headers, err := adapter.ReadCSVHeader(absPath)
	if err != nil {
		return err
	}

	if err := a.Exec(ctx, buildInsertCSVSQL(tableName, headers, absPath)); err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}
	return nil
}

func buildInsertCSVSQL(tableName string, columns []string, path string) string {
	cols := strings.Join(columns, ", ")
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM read_csv_auto('%s', header=true)",
		tableName, cols, cols, strings.ReplaceAll(path, "'", "''"),
	)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
