// Package duckdb provides a DuckDB adapter for reading a local copy of the
// shock-model database.
//
// This file registers the DuckDB adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/ptero-astro/ptero/pkg/adapters/duckdb"
package duckdb

import (
	"log/slog"

	"github.com/ptero-astro/ptero/pkg/adapter"
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
