// Package postgres provides a PostgreSQL adapter for the remote shock-model
// database.
//
// This file registers the PostgreSQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/ptero-astro/ptero/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/ptero-astro/ptero/pkg/adapter"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
