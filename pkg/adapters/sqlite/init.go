package sqlite

import (
	"log/slog"

	"github.com/ptero-astro/ptero/pkg/adapter"
)

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
