package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptero-astro/ptero/internal/query"
	"github.com/ptero-astro/ptero/internal/testutil"
)

const gridTable = "testdata/grid.tsv"

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func clearCredentials(t *testing.T) {
	t.Helper()
	for _, name := range []string{"MdB_HOST", "MdB_USER", "MdB_PASSWD", "MdB_PORT"} {
		t.Setenv(name, "")
	}
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "ptero", cmd.Use)

	names := make(map[string]bool)
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"series", "plot", "lines", "abundances", "densities", "mirror", "version", "completion"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	for _, flag := range []string{"config", "source", "db-path", "reference", "timeout", "output", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ptero v"+Version)
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "ptero")

	_, _, err = execute(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestSeries_LocalTable(t *testing.T) {
	clearCredentials(t)
	out, _, err := execute(t, "series", "--table", gridTable,
		"--x-num", "[O III] λ5007", "--x-den", "Hβ λ4861", "--y-quantity", "S23",
		"--vmax", "200", "--vstep", "50", "-o", "csv")
	require.NoError(t, err)

	assert.Contains(t, out, "100,10,2")
	assert.Contains(t, out, "150,30,4")
	assert.Contains(t, out, "200,50,6")
	assert.NotContains(t, out, "125,")
}

func TestSeries_LocalTableJSON(t *testing.T) {
	clearCredentials(t)
	out, _, err := execute(t, "series", "--table", gridTable,
		"--x-quantity", "S23", "--y-num", "[S II] λλ6716+6731", "--y-den", "Hα λ6563",
		"--vmax", "150", "-o", "json")
	require.NoError(t, err)

	var got struct {
		XLabel  string `json:"x_label"`
		Diagram struct {
			Velocities []int      `json:"velocities"`
			X          []*float64 `json:"x"`
		} `json:"diagram"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "S23", got.XLabel)
	assert.Equal(t, []int{100, 125, 150}, got.Diagram.Velocities)
	require.NotNil(t, got.Diagram.X[1])
	assert.Equal(t, 3.0, *got.Diagram.X[1])
}

func TestSeries_RequestFile(t *testing.T) {
	clearCredentials(t)
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
x: {quantity: S23}
y: {numerator: "[O III] λ5007", denominator: "Hβ λ4861"}
window: {min: 100, max: 200, step: 25}
`), 0o600))

	// --vstep overrides the file
	out, _, err := execute(t, "series", "--table", gridTable, "--request", path, "--vstep", "100", "-o", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "100,2,10")
	assert.Contains(t, out, "200,6,50")
	assert.NotContains(t, out, "150,")
}

func TestSeries_Errors(t *testing.T) {
	clearCredentials(t)

	t.Run("no abundance", func(t *testing.T) {
		_, _, err := execute(t, "series", "--x-quantity", "O23", "--y-quantity", "S23")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no abundance selected")
	})

	t.Run("invalid window", func(t *testing.T) {
		_, _, err := execute(t, "series", "--table", gridTable, "--x-quantity", "O23", "--y-quantity", "S23", "--vmin", "110")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid velocity window")
	})

	t.Run("unknown line in table", func(t *testing.T) {
		_, _, err := execute(t, "series", "--table", gridTable, "--x-num", "Ne III", "--x-den", "Hβ λ4861", "--y-quantity", "S23")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Ne III")
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, _, err := execute(t, "series", "--abundance", "Allen2008_Solar", "--x-quantity", "O23", "--y-quantity", "S23")
		var missing *query.MissingCredentialsError
		require.True(t, errors.As(err, &missing), "got %v", err)
		assert.Equal(t, "mysql", missing.Source, "the public 3MdBs server is the default source")
		assert.Equal(t, []string{"host", "user", "password"}, missing.Missing)
	})

	t.Run("conflicting axis flags", func(t *testing.T) {
		_, _, err := execute(t, "series", "--table", gridTable, "--x-quantity", "O23", "--x-num", "Ha", "--y-quantity", "S23")
		require.Error(t, err)
	})
}

func TestLinesCommand(t *testing.T) {
	out, _, err := execute(t, "lines", gridTable, "-o", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1+6+2)
	assert.Contains(t, out, "Hβ λ4861,line")
	assert.Contains(t, out, "S23,quantity")
	// spectroscopic order: H before O before S
	assert.Less(t, strings.Index(out, "Hα λ6563"), strings.Index(out, "[O II]"))
	assert.Less(t, strings.Index(out, "[O III]"), strings.Index(out, "[S II]"))

	out, _, err = execute(t, "lines", "-o", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "NII,line")
	assert.Contains(t, out, "NII_Ha,quantity")
}

func TestPlot_LocalTable(t *testing.T) {
	clearCredentials(t)
	dest := filepath.Join(t.TempDir(), "diagram.svg")
	out, _, err := execute(t, "plot", "--table", gridTable,
		"--x-num", "[O III] λ5007", "--x-den", "Hβ λ4861", "--y-quantity", "S23",
		"--vmax", "200", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestPlot_FlagErrors(t *testing.T) {
	clearCredentials(t)

	_, _, err := execute(t, "plot", "--table", gridTable, "--x-quantity", "O23", "--y-quantity", "S23", "--fits", "a.fits,b.fits")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly three files")

	_, _, err = execute(t, "plot", "--table", gridTable, "--x-quantity", "O23", "--y-quantity", "S23", "--mask", "bad.fits")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--mask requires --fits")

	_, _, err = execute(t, "plot", "--x-quantity", "O23", "--y-quantity", "S23", "--watch")
	require.Error(t, err)
}

func TestMirrorWorkflow(t *testing.T) {
	src := []string{"--source", "sqlite", "--db-path", testutil.SQLiteConfig(t).Path}
	run := func(args ...string) string {
		t.Helper()
		out, _, err := execute(t, append(append([]string{}, src...), args...)...)
		require.NoError(t, err, "ptero %v", args)
		return out
	}

	assert.Contains(t, run("mirror", "init"), "Mirror schema at version 2")
	assert.Contains(t, run("mirror", "load", testutil.AllenExport()), "Models")
	assert.Contains(t, run("mirror", "history", "-o", "csv"), "allen08")

	abundances := run("abundances", "-o", "csv")
	assert.Contains(t, abundances, "Allen2008_LMC")
	assert.Contains(t, abundances, "Allen2008_Solar")

	assert.Contains(t, run("densities", "--abundance", "Allen2008_LMC", "-o", "csv"), "10")

	out := run("series", "--abundance", "Allen2008_Solar", "--density", "1",
		"--x-num", "NII", "--x-den", "Ha", "--y-quantity", "S23",
		"--vmax", "200", "-o", "json")

	var got struct {
		Groups []struct {
			Family     string     `json:"family"`
			MagField   float64    `json:"mag_fld"`
			Velocities []int      `json:"velocities"`
			X          []*float64 `json:"x"`
			Y          []*float64 `json:"y"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Groups, 2)

	low, high := got.Groups[0], got.Groups[1]
	assert.Equal(t, "shock", low.Family)
	assert.Equal(t, 0.1, low.MagField)
	assert.Equal(t, []int{100, 125, 150, 175, 200}, low.Velocities)
	require.NotNil(t, low.Y[0])
	assert.Equal(t, 3.0, *low.Y[0])
	require.NotNil(t, low.X[0])
	assert.InDelta(t, 0.05, *low.X[0], 1e-12)

	assert.Equal(t, 1.0, high.MagField)
	assert.Nil(t, high.Y[2], "150 km/s is missing for B=1")
	require.NotNil(t, high.Y[3])

	dest := filepath.Join(t.TempDir(), "remote.png")
	run("plot", "--abundance", "Allen2008_Solar", "--shock", "--precursor", "--independent",
		"--x-quantity", "O23", "--y-quantity", "S23", "--vmax", "200", "--out", dest)
	assert.FileExists(t, dest)
}
