// Package mysql provides a MySQL adapter for the public 3MdBs shock-model
// database.
//
// This file registers the MySQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/ptero-astro/ptero/pkg/adapters/mysql"
package mysql

import (
	"log/slog"

	"github.com/ptero-astro/ptero/pkg/adapter"
)

func init() {
	adapter.Register("mysql", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
