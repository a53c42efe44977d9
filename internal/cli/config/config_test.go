package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptero-astro/ptero/pkg/adapter"
	_ "github.com/ptero-astro/ptero/pkg/adapters/mysql"
	_ "github.com/ptero-astro/ptero/pkg/adapters/postgres"
	_ "github.com/ptero-astro/ptero/pkg/adapters/sqlite"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("source", "", "")
	fs.String("db-path", "", "")
	fs.Duration("timeout", 0, "")
	fs.String("reference", "", "")
	fs.String("tables-dir", "", "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.Float64("width", 0, "")
	fs.Bool("log-scale", true, "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MdB_HOST", "3mdb.example.org")
	t.Setenv("MdB_USER", "OVN_user")
	t.Setenv("MdB_PASSWD", "")
	t.Setenv("MdB_PORT", "")

	cfg, err := LoadConfig("", testFlags())
	require.NoError(t, err)

	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, "mysql", cfg.Source.Type)
	assert.Equal(t, "3mdb.example.org", cfg.Source.Host)
	assert.Equal(t, "OVN_user", cfg.Source.User)
	assert.Empty(t, cfg.Source.Password)
	assert.Equal(t, 3306, cfg.Source.Port)
	assert.Equal(t, "3MdBs", cfg.Source.Database)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "Allen08", cfg.Reference)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultPlotWidth, cfg.Plot.Width)
	assert.True(t, cfg.Plot.LogScale)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultTablesDir), cfg.TablesDir)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join("testdata", "ptero.yaml")
	cfg, err := LoadConfig(path, testFlags())
	require.NoError(t, err)

	root, err := filepath.Abs("testdata")
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, "sqlite", cfg.Source.Type)
	assert.Equal(t, filepath.Join(root, "mirror", "3mdb.db"), cfg.Source.Path)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Equal(t, "Gutkin16", cfg.Reference)
	assert.Equal(t, filepath.Join(root, "grids"), cfg.TablesDir)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 8.0, cfg.Plot.Width)
	assert.Equal(t, DefaultPlotHeight, cfg.Plot.Height)
	assert.Equal(t, "svg", cfg.Plot.Format)
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ptero.yml"), []byte("reference: Alarie19\n"), 0o600))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "Alarie19", cfg.Reference)
	assert.Equal(t, filepath.Join(root, "ptero.yml"), GetConfigFileUsed())
}

func TestLoadConfig_ExpandsCredentials(t *testing.T) {
	t.Setenv("MdB_HOST", "db.local")
	t.Setenv("MdB_USER", "reader")
	t.Setenv("MdB_PASSWD", "secret")

	cfg, err := LoadConfig(filepath.Join("testdata", "postgres.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, "db.local", cfg.Source.Host)
	assert.Equal(t, "reader", cfg.Source.User)
	assert.Equal(t, "secret", cfg.Source.Password)
	assert.Equal(t, "require", cfg.Source.Options["sslmode"])

	ac := cfg.Source.ToAdapterConfig()
	require.NotNil(t, ac)
	assert.Equal(t, "reader", ac.Username)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join("testdata", "ptero.yaml")

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("PTERO_REFERENCE", "Allen08")
		t.Setenv("PTERO_SOURCE_TIMEOUT", "7s")
		t.Setenv("PTERO_PLOT_FORMAT", "pdf")

		cfg, err := LoadConfig(path, testFlags())
		require.NoError(t, err)
		assert.Equal(t, "Allen08", cfg.Reference)
		assert.Equal(t, 7*time.Second, cfg.Source.Timeout)
		assert.Equal(t, "pdf", cfg.Plot.Format)
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("PTERO_REFERENCE", "Allen08")
		flags := testFlags()
		require.NoError(t, flags.Parse([]string{"--reference", "Alarie19", "--timeout", "2s", "--width", "10", "--log-scale=false", "-o", "csv"}))

		cfg, err := LoadConfig(path, flags)
		require.NoError(t, err)
		assert.Equal(t, "Alarie19", cfg.Reference)
		assert.Equal(t, 2*time.Second, cfg.Source.Timeout)
		assert.Equal(t, 10.0, cfg.Plot.Width)
		assert.False(t, cfg.Plot.LogScale)
		assert.Equal(t, "csv", cfg.OutputFormat)
	})

	t.Run("flag paths resolve against cwd", func(t *testing.T) {
		flags := testFlags()
		require.NoError(t, flags.Parse([]string{"--source", "duckdb", "--db-path", "local.duckdb"}))

		cwd, err := os.Getwd()
		require.NoError(t, err)

		_, err = LoadConfig(path, flags)
		// duckdb is not registered in this test binary
		var unknown *adapter.UnknownAdapterError
		require.True(t, errors.As(err, &unknown), "got %v", err)

		flags = testFlags()
		require.NoError(t, flags.Parse([]string{"--db-path", "local.db"}))
		cfg, err := LoadConfig(path, flags)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, "local.db"), cfg.Source.Path)
	})
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join("testdata", "nope.yaml"), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("invalid output", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join("testdata", "invalid.yaml"), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid output format")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return FromContext(context.Background()) }

	assert.NoError(t, valid().Validate())

	c := valid()
	c.Plot.Height = 0
	assert.ErrorContains(t, c.Validate(), "plot size")

	c = valid()
	c.Plot.Format = "gif"
	assert.ErrorContains(t, c.Validate(), "invalid plot format")

	c = valid()
	c.Source = &SourceConfig{Type: "oracle"}
	assert.ErrorContains(t, c.Validate(), "invalid source configuration")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "source.host", envKey("PTERO_SOURCE_HOST"))
	assert.Equal(t, "plot.log_scale", envKey("PTERO_PLOT_LOG_SCALE"))
	assert.Equal(t, "tables_dir", envKey("PTERO_TABLES_DIR"))
	assert.Equal(t, "verbose", envKey("PTERO_VERBOSE"))
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, GetLogger(ctx))

	cfg := &Config{Reference: "Gutkin16"}
	assert.Same(t, cfg, FromContext(WithConfig(ctx, cfg)))
	assert.Equal(t, "Allen08", FromContext(ctx).Reference)
}
