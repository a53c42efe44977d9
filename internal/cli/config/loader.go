package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	sharedcfg "github.com/ptero-astro/ptero/internal/config"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// envPrefix prefixes every environment override, e.g. PTERO_SOURCE_HOST.
const envPrefix = "PTERO_"

var configFileUsed string

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"source":     "source.type",
	"db-path":    "source.path",
	"timeout":    "source.timeout",
	"log-scale":  "plot.log_scale",
	"width":      "plot.width",
	"height":     "plot.height",
	"format":     "plot.format",
	"tables-dir": "tables_dir",
}

// configFileIn returns the config file in dir, or "" when there is none.
func configFileIn(dir string) string {
	for _, name := range ConfigFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a ptero config file.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if p := configFileIn(dir); p != "" {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// envKey transforms PTERO_SOURCE_HOST into source.host and
// PTERO_TABLES_DIR into tables_dir.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range []string{"source_", "plot_"} {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return key
}

// defaults returns the lowest configuration layer. Source credentials point
// at the MdB_* variables used by the public 3MdBs server.
func defaults() map[string]any {
	return map[string]any{
		"source.type":     sharedcfg.DefaultSourceType,
		"source.host":     "${MdB_HOST}",
		"source.user":     "${MdB_USER}",
		"source.password": "${MdB_PASSWD}",
		"source.timeout":  sharedcfg.DefaultTimeout.String(),
		"reference":       sharedcfg.DefaultReference,
		"tables_dir":      DefaultTablesDir,
		"output":          DefaultOutput,
		"verbose":         false,
		"plot.width":      DefaultPlotWidth,
		"plot.height":     DefaultPlotHeight,
		"plot.log_scale":  true,
		"plot.format":     DefaultPlotFormat,
	}
}

// LoadConfig loads configuration from defaults, file, environment variables
// and flags. Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit path, else search upward from CWD
	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	projectRoot := cwd
	configFileUsed = cfgFile
	if configFileUsed == "" {
		configFileUsed = findConfigUpward(cwd)
	}
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment variables (PTERO_ prefix)
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (only those explicitly set)
	flagPaths := map[string]bool{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			if key == "source.path" || key == "tables_dir" {
				flagPaths[key] = true
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	if cfg.Source == nil {
		cfg.Source = &SourceConfig{}
	}
	sharedcfg.ExpandSourceEnv(cfg.Source)
	sharedcfg.ApplySourceDefaults(cfg.Source)

	// Paths from flags are relative to the CWD, the rest to the project root.
	if flagPaths["source.path"] {
		cfg.Source.Path = resolvePathRelativeTo(cfg.Source.Path, cwd)
	} else {
		cfg.Source.Path = resolvePathRelativeTo(cfg.Source.Path, projectRoot)
	}
	if flagPaths["tables_dir"] {
		cfg.TablesDir = resolvePathRelativeTo(cfg.TablesDir, cwd)
	} else {
		cfg.TablesDir = resolvePathRelativeTo(cfg.TablesDir, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// LoggerKey returns the context key used for storing the logger.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from the command context, falling back
// to the defaults when none was loaded.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return &Config{
		Source:       &SourceConfig{},
		Reference:    sharedcfg.DefaultReference,
		TablesDir:    DefaultTablesDir,
		OutputFormat: DefaultOutput,
		Plot: PlotConfig{
			Width:    DefaultPlotWidth,
			Height:   DefaultPlotHeight,
			LogScale: true,
			Format:   DefaultPlotFormat,
		},
	}
}
