// Package config provides the model-database configuration shared by the CLI
// and the engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ptero-astro/ptero/pkg/adapter"
)

// SourceConfig describes where the shock models live.
type SourceConfig struct {
	Type string `koanf:"type"` // mysql, postgres, sqlite, duckdb

	// File-based databases (SQLite, DuckDB)
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB extensions)
	Params map[string]any `koanf:"params"`

	// Timeout bounds one query round trip.
	Timeout time.Duration `koanf:"timeout"`
}

// ToAdapterConfig converts a source to the adapter's connection config.
func (s *SourceConfig) ToAdapterConfig() *adapter.Config {
	if s == nil || s.Type == "" {
		return nil
	}
	return &adapter.Config{
		Type:     s.Type,
		Path:     s.Path,
		Host:     s.Host,
		Port:     s.Port,
		Database: s.Database,
		Username: s.User,
		Password: s.Password,
		Options:  s.Options,
		Params:   s.Params,
	}
}

// Validate checks that the source type names a registered adapter.
func (s *SourceConfig) Validate() error {
	if s.Type == "" {
		return nil
	}
	if !adapter.IsRegistered(strings.ToLower(s.Type)) {
		return &adapter.UnknownAdapterError{Type: s.Type, Available: adapter.ListAdapters()}
	}
	if s.Timeout < 0 {
		return fmt.Errorf("source timeout must not be negative, got %s", s.Timeout)
	}
	return nil
}
