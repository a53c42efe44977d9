package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ptero-astro/ptero/pkg/adapter"
)

// AllenExport returns the directory holding the small 3MdB-shaped CSV
// export used across tests: two abundance sets, twelve models, every family.
func AllenExport() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "mirror", "testdata", "allen08")
}

// SQLiteConfig returns an adapter config for a fresh SQLite file that is
// removed with the test.
func SQLiteConfig(t testing.TB) adapter.Config {
	t.Helper()
	return adapter.Config{Type: "sqlite", Path: filepath.Join(t.TempDir(), "mirror.db")}
}
