// Package adapter provides the database adapter contract used to reach a
// shock-model database.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
)

// Config holds the connection parameters for one data source.
type Config struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
	Params   map[string]any
}

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting to databases, executing SQL and
// loading bulk data.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g., INSERT, CREATE).
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows. The caller closes them.
	Query(ctx context.Context, sql string, args ...any) (*sql.Rows, error)

	// LoadCSV appends the rows of a CSV file with a header row to an
	// existing table. Columns are matched by header name.
	LoadCSV(ctx context.Context, tableName string, filePath string) error

	// MissingParams lists the connection parameters cfg lacks for this adapter.
	MissingParams(cfg Config) []string

	// Dialect returns the SQL dialect settings for this adapter.
	Dialect() *Dialect

	// Handle exposes the underlying pool for tools that drive database/sql
	// directly, such as the migration runner.
	Handle() *sql.DB
}

// Dialect describes the SQL differences the query layer has to care about.
type Dialect struct {
	// Name is the goose dialect name as well as the display name.
	Name string
	// Numbered placeholders use $1, $2, ... instead of ?.
	Numbered bool
}

// FormatPlaceholder returns the bind placeholder for the n-th argument (1-based).
func (d *Dialect) FormatPlaceholder(n int) string {
	if d.Numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
