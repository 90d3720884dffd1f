package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyndex/internal/core/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyndex.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, []string{"**/*.py"}, cfg.Scan.Include)
	assert.Contains(t, cfg.Scan.ExcludeDirs, ".git")
	assert.Contains(t, cfg.Scan.ExcludeDirs, "__pycache__")
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 16, cfg.Output.HashLength)
	assert.Equal(t, int64(1<<20), cfg.Parse.MaxFileSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadOverridesAndAppendsExcludes(t *testing.T) {
	path := writeConfig(t, `
version = 1
project = "demo"

[scan]
exclude_dirs = ["generated"]

[output]
format = "json.gz"
minify = true
hash_length = 32
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project)
	assert.Equal(t, "json.gz", cfg.Output.Format)
	assert.True(t, cfg.Output.Minify)
	assert.Equal(t, 32, cfg.Output.HashLength)
	// Fixed exclusions survive user additions.
	assert.Contains(t, cfg.Scan.ExcludeDirs, ".venv")
	assert.Contains(t, cfg.Scan.ExcludeDirs, "generated")
}

func TestLoadRejectsBadFormat(t *testing.T) {
	path := writeConfig(t, `
[output]
format = "yaml"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestLoadRejectsBadHashLength(t *testing.T) {
	path := writeConfig(t, `
[output]
hash_length = 12
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := writeConfig(t, `version = 3`)
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}
