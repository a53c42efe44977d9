// Package mirror maintains a local copy of the shock-model database so
// diagrams can be produced without the remote server.
package mirror

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/ptero-astro/ptero/pkg/adapter"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Tables lists the mirrored tables in load order. Each is read from
// <dir>/<table>.csv.
var Tables = []string{"abundances", "shock_params", "emis_VI", "emis_IR"}

// LoadReport describes one completed Load.
type LoadReport struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
	Models   int       `json:"models"`
}

func gooseDialect(d *adapter.Dialect) (string, error) {
	switch d.Name {
	case "sqlite3", "postgres":
		return d.Name, nil
	default:
		return "", fmt.Errorf("mirror migrations support sqlite and postgres, not %s", d.Name)
	}
}

func configure(adp adapter.Adapter) error {
	if adp.Handle() == nil {
		return fmt.Errorf("database not opened")
	}
	name, err := gooseDialect(adp.Dialect())
	if err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(name); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Migrate creates or upgrades the mirror schema.
func Migrate(ctx context.Context, adp adapter.Adapter) error {
	if err := configure(adp); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, adp.Handle(), "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Version returns the current schema version, 0 for an empty database.
func Version(ctx context.Context, adp adapter.Adapter) (int64, error) {
	if err := configure(adp); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, adp.Handle())
}

// Load appends every table export found in dir and records the load.
// All four files must be present.
func Load(ctx context.Context, adp adapter.Adapter, dir string, logger *slog.Logger) (*LoadReport, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for _, table := range Tables {
		if _, err := os.Stat(csvPath(dir, table)); err != nil {
			return nil, fmt.Errorf("missing export for %s: %w", table, err)
		}
	}

	for _, table := range Tables {
		path := csvPath(dir, table)
		logger.Info("loading table", slog.String("table", table), slog.String("path", path))
		if err := adp.LoadCSV(ctx, table, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", table, err)
		}
	}

	models, err := countModels(ctx, adp)
	if err != nil {
		return nil, err
	}

	report := &LoadReport{
		ID:       uuid.New().String(),
		Source:   dir,
		LoadedAt: time.Now().UTC(),
		Models:   models,
	}
	d := adp.Dialect()
	insert := fmt.Sprintf("INSERT INTO mirror_loads (id, source, loaded_at, models) VALUES (%s, %s, %s, %s)",
		d.FormatPlaceholder(1), d.FormatPlaceholder(2), d.FormatPlaceholder(3), d.FormatPlaceholder(4))
	if err := adp.Exec(ctx, insert, report.ID, report.Source, report.LoadedAt.Format(time.RFC3339), report.Models); err != nil {
		return nil, fmt.Errorf("failed to record load: %w", err)
	}
	return report, nil
}

func csvPath(dir, table string) string {
	return filepath.Join(dir, table+".csv")
}

func countModels(ctx context.Context, adp adapter.Adapter) (int, error) {
	rows, err := adp.Query(ctx, "SELECT COUNT(*) FROM shock_params")
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to count models: %w", err)
		}
	}
	return n, rows.Err()
}

// History lists recorded loads, most recent first.
func History(ctx context.Context, adp adapter.Adapter) ([]LoadReport, error) {
	rows, err := adp.Query(ctx, "SELECT id, source, loaded_at, models FROM mirror_loads ORDER BY loaded_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []LoadReport
	for rows.Next() {
		var r LoadReport
		var loadedAt string
		if err := rows.Scan(&r.ID, &r.Source, &loadedAt, &r.Models); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		r.LoadedAt, err = time.Parse(time.RFC3339, loadedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid load time %q: %w", loadedAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
