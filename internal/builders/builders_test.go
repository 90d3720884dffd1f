package builders

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyndex/internal/core/errors"
	"pyndex/internal/engine/parser"
	"pyndex/internal/index"
)

func indexSources(t *testing.T, sources map[string]string) *index.Indexer {
	t.Helper()
	p, err := parser.New()
	require.NoError(t, err)

	ix := index.NewIndexer()
	for path, src := range sources {
		pf, err := p.ParseSource(path, []byte(src))
		require.NoError(t, err)
		ix.AddFile(pf)
	}
	return ix
}

const modelsSource = `"""Models module."""
from pkg import Foo

# registry comment
class User(Foo):
    """A user."""

    name: str = ""

    def save(self, force=False) -> None:
        # persist to store
        pass


def helper(items=[]):
    """Help."""
    pass
`

func TestStructureBuild(t *testing.T) {
	ix := indexSources(t, map[string]string{"models.py": modelsSource})

	b := NewStructure()
	require.NoError(t, b.AddIndex(ix))
	doc, err := b.Build(NewMeta("demo", "run-1"), false)
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, doc.Meta.FormatVersion)
	require.Len(t, doc.Modules, 1)
	assert.Equal(t, -1, doc.Modules[0][2])
	require.Len(t, doc.Classes, 1)
	require.Len(t, doc.Functions, 2)
	require.Len(t, doc.Imports, 1)

	// The method row points at its class ordinal, the helper at -1.
	assert.Equal(t, 0, doc.Functions[0][1])
	assert.Equal(t, -1, doc.Functions[1][1])

	// Every referenced table index resolves.
	for _, m := range doc.Modules {
		assert.Less(t, m[0], len(doc.Names))
		assert.Less(t, m[1], len(doc.Files))
	}
	for _, c := range doc.Classes {
		assert.Less(t, c.NameIdx, len(doc.Names))
		for _, attr := range c.Attrs {
			assert.Less(t, attr[0], len(doc.Names))
			if attr[2] != -1 {
				assert.Less(t, attr[2], len(doc.Defaults))
			}
		}
	}
}

func TestStructureFrozenAfterBuild(t *testing.T) {
	ix := indexSources(t, map[string]string{"models.py": modelsSource})

	b := NewStructure()
	require.NoError(t, b.AddIndex(ix))
	_, err := b.Build(NewMeta("demo", "run-1"), false)
	require.NoError(t, err)

	err = b.AddIndex(ix)
	assert.True(t, errors.IsCode(err, errors.CodeBuilderFrozen))
	_, err = b.Build(NewMeta("demo", "run-1"), false)
	assert.True(t, errors.IsCode(err, errors.CodeBuilderFrozen))
}

func TestStructureCompressedNames(t *testing.T) {
	ix := indexSources(t, map[string]string{"models.py": modelsSource})

	b := NewStructure()
	require.NoError(t, b.AddIndex(ix))
	doc, err := b.Build(NewMeta("demo", "run-1"), true)
	require.NoError(t, err)

	assert.Empty(t, doc.Names)
	require.NotEmpty(t, doc.NamesGz)

	names, err := DecompressStringTable(doc.NamesGz)
	require.NoError(t, err)
	assert.Equal(t, ix.Names.Values(), names)
}

func TestCoordinatesBuild(t *testing.T) {
	ix := indexSources(t, map[string]string{"models.py": modelsSource})

	b := NewCoordinates()
	require.NoError(t, b.AddIndex(ix))
	require.NoError(t, b.AddFileMeta("models.py", FileMeta{
		Size:     int64(len(modelsSource)),
		Modified: "2026-08-27T10:00:00Z",
		Hash:     "9f86d081885c7af3",
	}))

	doc, err := b.Build(NewMeta("demo", "run-1"))
	require.NoError(t, err)

	require.Len(t, doc.Files, 1)
	assert.Equal(t, int64(len(modelsSource)), doc.Sizes[0])
	assert.Equal(t, "9f86d081885c7af3", doc.Hashes[0])

	// One span per allocated location id, file indices in range.
	assert.Len(t, doc.Spans, ix.LocationCount())
	for _, span := range doc.Spans {
		assert.GreaterOrEqual(t, span[0], 1)
		assert.Less(t, span[1], len(doc.Files))
		assert.LessOrEqual(t, span[2], span[3])
	}

	err = b.AddFileMeta("late.py", FileMeta{})
	assert.True(t, errors.IsCode(err, errors.CodeBuilderFrozen))
}

func TestDocstringsBuild(t *testing.T) {
	ix := indexSources(t, map[string]string{"models.py": modelsSource})

	b := NewDocstrings()
	for _, entry := range ix.Docstrings {
		require.NoError(t, b.Add(entry))
	}
	doc, err := b.Build(NewMeta("demo", "run-1"))
	require.NoError(t, err)

	// module, class, helper docstrings
	assert.Len(t, doc.Entries, 3)
	assert.Contains(t, doc.Texts, "Models module.")
	assert.Contains(t, doc.Texts, "A user.")
	require.Len(t, doc.Files, 1)

	_, err = b.Build(NewMeta("demo", "run-1"))
	assert.True(t, errors.IsCode(err, errors.CodeBuilderFrozen))
}

func TestCommentsBuild(t *testing.T) {
	ix := indexSources(t, map[string]string{"models.py": modelsSource})

	b := NewComments()
	for _, entry := range ix.Comments {
		require.NoError(t, b.Add(entry))
	}
	doc, err := b.Build(NewMeta("demo", "run-1"))
	require.NoError(t, err)

	assert.Contains(t, doc.Texts, "registry comment")
	assert.Contains(t, doc.Texts, "persist to store")
	// Two distinct owners: the module and the save method.
	assert.Len(t, doc.Entries, 2)
}

func TestEmptyEntriesSerializeAsArrays(t *testing.T) {
	meta := NewMeta("demo", "run-1")

	comments, err := NewComments().Build(meta)
	require.NoError(t, err)
	docstrings, err := NewDocstrings().Build(meta)
	require.NoError(t, err)

	for _, doc := range []any{comments, docstrings} {
		raw, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"entries":[]`)
		assert.NotContains(t, string(raw), "null")
	}
}

func TestJoinIntegrityAcrossArtifacts(t *testing.T) {
	ix := indexSources(t, map[string]string{
		"models.py": modelsSource,
		"app.py":    "\"\"\"App.\"\"\"\nimport os\n\n\ndef run():\n    pass\n",
	})

	sb := NewStructure()
	require.NoError(t, sb.AddIndex(ix))
	structure, err := sb.Build(NewMeta("demo", "run-1"), false)
	require.NoError(t, err)

	cb := NewCoordinates()
	require.NoError(t, cb.AddIndex(ix))
	coords, err := cb.Build(NewMeta("demo", "run-1"))
	require.NoError(t, err)

	spanLocs := map[int]bool{}
	for _, span := range coords.Spans {
		spanLocs[span[0]] = true
	}

	// Every structural entity's location id has exactly one span.
	var entityLocs []int
	for _, m := range structure.Modules {
		entityLocs = append(entityLocs, m[3])
	}
	for _, c := range structure.Classes {
		entityLocs = append(entityLocs, c.LocID)
	}
	for _, f := range structure.Functions {
		entityLocs = append(entityLocs, f[3])
	}
	for _, imp := range structure.Imports {
		entityLocs = append(entityLocs, imp.LocID)
	}
	assert.Len(t, entityLocs, len(coords.Spans))
	for _, loc := range entityLocs {
		assert.True(t, spanLocs[loc], "no span for loc %d", loc)
	}
}
