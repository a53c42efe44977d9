// Package config provides configuration management for the ptero CLI.
//
// The model-database settings are shared with the engine through
// internal/config and re-exported here via a type alias.
package config

import (
	sharedcfg "github.com/ptero-astro/ptero/internal/config"
)

// SourceConfig is an alias for the shared model-database configuration.
type SourceConfig = sharedcfg.SourceConfig

// PlotConfig holds figure output settings.
type PlotConfig struct {
	Width    float64 `koanf:"width"`  // inches
	Height   float64 `koanf:"height"` // inches
	LogScale bool    `koanf:"log_scale"`
	Format   string  `koanf:"format"`
}

// Config holds all CLI configuration options.
type Config struct {
	Source       *SourceConfig `koanf:"source"`
	Reference    string        `koanf:"reference"`
	TablesDir    string        `koanf:"tables_dir"`
	OutputFormat string        `koanf:"output"`
	Verbose      bool          `koanf:"verbose"`
	Plot         PlotConfig    `koanf:"plot"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultTablesDir  = "tables"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultPlotWidth  = 6.0
	DefaultPlotHeight = 4.5
	DefaultPlotFormat = "png"
)

// ConfigFileNames are searched for, in order, in each directory.
var ConfigFileNames = []string{"ptero.yaml", "ptero.yml"}
