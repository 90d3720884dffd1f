package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyndex/internal/builders"
	"pyndex/internal/core/config"
	"pyndex/internal/core/errors"
	"pyndex/internal/data/history"
	"pyndex/internal/serialize"
)

const modelsPy = `"""Data models."""
from pkg import Foo


class User(Foo):
    """A user."""

    name: str = ""

    def save(self, force=False) -> None:
        """Persist the user."""
        # write to the store
        pass
`

const appPy = `"""Entry points."""
import os


def run(config_path: str = "app.toml") -> int:
    """Run the app."""
    return 0
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	cfg.Project = "demo"
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func TestPipelineEndToEnd(t *testing.T) {
	root := writeProject(t, map[string]string{
		"models.py": modelsPy,
		"app.py":    appPy,
	})
	cfg := testConfig(t)

	result, err := NewPipeline(cfg, nil, nil).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesIndexed)
	assert.Equal(t, 0, result.FilesSkipped)
	require.Len(t, result.Artifacts, 4)
	// 2 modules + 2 imports + 1 class + 2 functions/methods
	assert.Equal(t, 7, result.Locations)

	var structure builders.StructureDoc
	require.NoError(t, serialize.ReadJSON(filepath.Join(cfg.Output.Dir, "structure.json"), &structure))
	var coords builders.CoordinatesDoc
	require.NoError(t, serialize.ReadJSON(filepath.Join(cfg.Output.Dir, "coordinates.json"), &coords))
	var docstrings builders.DocstringsDoc
	require.NoError(t, serialize.ReadJSON(filepath.Join(cfg.Output.Dir, "docstrings.json"), &docstrings))
	var comments builders.CommentsDoc
	require.NoError(t, serialize.ReadJSON(filepath.Join(cfg.Output.Dir, "comments.json"), &comments))

	assert.Equal(t, "1", structure.Meta.FormatVersion)
	assert.Equal(t, structure.Meta.RunID, coords.Meta.RunID)

	assert.Len(t, structure.Modules, 2)
	assert.Len(t, structure.Classes, 1)
	assert.Len(t, structure.Functions, 2)
	assert.Len(t, structure.Imports, 2)
	assert.Contains(t, structure.Names, "User")
	assert.Contains(t, structure.Names, "pkg")
	assert.Contains(t, structure.Names, "Foo")

	// Annotations round-trip through the names table.
	assert.Contains(t, structure.Names, "str")
	assert.Contains(t, structure.Names, "int")

	// Every entity location id resolves to exactly one span.
	spanFor := map[int]bool{}
	for _, span := range coords.Spans {
		assert.False(t, spanFor[span[0]])
		spanFor[span[0]] = true
	}
	for _, m := range structure.Modules {
		assert.True(t, spanFor[m[3]])
	}
	for _, c := range structure.Classes {
		assert.True(t, spanFor[c.LocID])
	}
	for _, f := range structure.Functions {
		assert.True(t, spanFor[f[3]])
	}
	for _, imp := range structure.Imports {
		assert.True(t, spanFor[imp.LocID])
	}

	// File metadata is aligned with the files table.
	require.Len(t, coords.Files, 2)
	for i := range coords.Files {
		assert.Positive(t, coords.Sizes[i])
		assert.NotEmpty(t, coords.Modified[i])
		assert.Len(t, coords.Hashes[i], cfg.Output.HashLength)
	}

	// 2 module docstrings + class + 2 function docstrings
	assert.Len(t, docstrings.Entries, 5)
	assert.Contains(t, docstrings.Texts, "Data models.")
	assert.Contains(t, comments.Texts, "write to the store")
}

func TestPipelineSkipsBrokenFiles(t *testing.T) {
	big := "x = 1\n" + strings.Repeat("# padding line\n", 100)
	root := writeProject(t, map[string]string{
		"good.py":   appPy,
		"broken.py": "def f(:\n    pass\n",
		"big.py":    big,
	})
	cfg := testConfig(t)
	cfg.Parse.MaxFileSize = 256

	result, err := NewPipeline(cfg, nil, nil).Run(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FilesIndexed)
	assert.Equal(t, 2, result.FilesSkipped)

	var structure builders.StructureDoc
	require.NoError(t, serialize.ReadJSON(filepath.Join(cfg.Output.Dir, "structure.json"), &structure))
	assert.Equal(t, []string{"good.py"}, structure.Files)
}

func TestPipelineEmptyProject(t *testing.T) {
	root := writeProject(t, map[string]string{"readme.txt": "nothing here"})
	cfg := testConfig(t)

	_, err := NewPipeline(cfg, nil, nil).Run(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestPipelineRecordsHistory(t *testing.T) {
	root := writeProject(t, map[string]string{"app.py": appPy})
	cfg := testConfig(t)
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")

	store, err := history.Open(cfg.History.Path)
	require.NoError(t, err)
	defer store.Close()

	result, err := NewPipeline(cfg, nil, store).Run(context.Background(), root)
	require.NoError(t, err)

	runs, err := store.RecentRuns(context.Background(), "demo", 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].RunID)
	assert.Equal(t, 1, runs[0].FilesIndexed)
}

func TestPipelineMsgpackOutput(t *testing.T) {
	root := writeProject(t, map[string]string{"app.py": appPy})
	cfg := testConfig(t)
	cfg.Output.Format = "msgpack"

	result, err := NewPipeline(cfg, nil, nil).Run(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, result.Artifacts, 4)
	for _, path := range result.Artifacts {
		assert.True(t, strings.HasSuffix(path, ".msgpack"), path)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
