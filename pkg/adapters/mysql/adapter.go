// Package mysql provides a MySQL adapter for the public 3MdBs shock-model
// database.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/ptero-astro/ptero/pkg/adapter"
)

// DefaultPort is the MySQL server port used when the config leaves it unset.
const DefaultPort = 3306

var dialect = &adapter.Dialect{Name: "mysql"}

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the MySQL dialect settings.
func (a *Adapter) Dialect() *adapter.Dialect {
	return dialect
}

// MissingParams lists the credentials a remote connection needs but cfg lacks.
func (a *Adapter) MissingParams(cfg adapter.Config) []string {
	return adapter.MissingFields(cfg, "host", "database", "user", "password")
}

// Connect establishes a connection to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	mcfg := buildMySQLConfig(cfg)

	a.Logger.Debug("connecting to mysql", slog.String("addr", mcfg.Addr), slog.String("database", cfg.Database))

	connector, err := mysql.NewConnector(mcfg)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildMySQLConfig maps an adapter config onto the driver config. Options
// are passed through as connection parameters.
func buildMySQLConfig(cfg adapter.Config) *mysql.Config {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}

	mcfg := mysql.NewConfig()
	mcfg.Net = "tcp"
	mcfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mcfg.DBName = cfg.Database
	mcfg.User = cfg.Username
	mcfg.Passwd = cfg.Password
	if len(cfg.Options) > 0 {
		mcfg.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			mcfg.Params[k] = v
		}
	}
	return mcfg
}

// LoadCSV streams a CSV file into an existing table with LOAD DATA LOCAL
// INFILE. Empty fields load as NULL.
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

	file, err := os.Open(absPath) //nolint:gosec // absPath is derived from user-provided filePath, which is expected
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	handler := "ptero-" + uuid.NewString()
	mysql.RegisterReaderHandler(handler, func() io.Reader { return file })
	defer mysql.DeregisterReaderHandler(handler)

	a.Logger.Debug("loading csv", slog.String("table", tableName), slog.String("path", absPath))
	if err := a.Exec(ctx, buildLoadDataSQL(tableName, headers, handler)); err != nil {
		return fmt.Errorf("failed to load %s into %s: %w", filepath.Base(absPath), tableName, err)
	}
	return nil
}

func buildLoadDataSQL(tableName string, columns []string, handler string) string {
	vars := make([]string, len(columns))
	sets := make([]string, len(columns))
	for i, col := range columns {
		vars[i] = "@c" + strconv.Itoa(i+1)
		sets[i] = fmt.Sprintf("%s = NULLIF(%s, '')", quoteIdentifier(col), vars[i])
	}
	return fmt.Sprintf(
		"LOAD DATA LOCAL INFILE 'Reader::%s' INTO TABLE %s "+
			"FIELDS TERMINATED BY ',' OPTIONALLY ENCLOSED BY '\"' LINES TERMINATED BY '\\n' IGNORE 1 LINES (%s) SET %s",
		handler, quoteIdentifier(tableName), strings.Join(vars, ", "), strings.Join(sets, ", "))
}

// quoteIdentifier wraps a name in backticks.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(strings.TrimSpace(name), "`", "``") + "`"
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
