package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyndex/internal/engine/parser"
)

func sampleFile() *parser.ParsedFile {
	return &parser.ParsedFile{
		Path:      "src/models.py",
		Module:    "models",
		LineCount: 30,
		Docstring: &parser.Docstring{Text: "Models.", LineStart: 1, LineEnd: 1},
		Imports: []parser.Import{
			{Module: "pkg", Names: []string{"Foo"}, Line: 3},
		},
		Classes: []parser.ClassDef{
			{
				Name:       "User",
				Bases:      []string{"Base"},
				Decorators: []string{"dataclass"},
				Docstring:  &parser.Docstring{Text: "A user.", LineStart: 7, LineEnd: 7},
				Attributes: []parser.Attribute{
					{Name: "name", TypeHint: "str", Default: `""`, HasDefault: true, Line: 9},
				},
				Methods: []parser.FunctionDef{
					{
						Name: "save",
						Parameters: []parser.Parameter{
							{Name: "self", Kind: parser.ParamPositional},
							{Name: "force", Default: "False", HasDefault: true, Kind: parser.ParamPositional},
						},
						ReturnType:  "None",
						ParentClass: "User",
						LineStart:   11,
						LineEnd:     14,
					},
				},
				LineStart: 6,
				LineEnd:   14,
			},
		},
		Functions: []parser.FunctionDef{
			{Name: "helper", LineStart: 17, LineEnd: 20},
		},
		Comments: []parser.Comment{
			{Text: "module comment", Line: 2},
			{Text: "inside save", Line: 12},
			{Text: "inside class body", Line: 8},
		},
	}
}

func TestIndexerAddFile(t *testing.T) {
	ix := NewIndexer()
	ents := ix.AddFile(sampleFile())

	// Allocation order: module, import, class, method, function.
	require.Len(t, ix.Modules, 1)
	assert.Equal(t, 1, ents.ModuleLoc)
	assert.Equal(t, 1, ix.Modules[0].LocID)

	require.Len(t, ix.Imports, 1)
	assert.Equal(t, 2, ix.Imports[0].LocID)
	module, _ := ix.Names.At(ix.Imports[0].ModuleIdx)
	assert.Equal(t, "pkg", module)
	require.Len(t, ix.Imports[0].Names, 1)
	name, _ := ix.Names.At(ix.Imports[0].Names[0])
	assert.Equal(t, "Foo", name)

	require.Len(t, ix.Classes, 1)
	assert.Equal(t, 3, ix.Classes[0].LocID)
	require.Len(t, ix.Classes[0].Attrs, 1)
	assert.NotEqual(t, -1, ix.Classes[0].Attrs[0].TypeIdx)
	assert.NotEqual(t, -1, ix.Classes[0].Attrs[0].DefaultIdx)

	require.Len(t, ix.Functions, 2)
	assert.Equal(t, 4, ix.Functions[0].LocID)
	assert.Equal(t, 0, ix.Functions[0].ClassOrd)
	assert.Equal(t, 5, ix.Functions[1].LocID)
	assert.Equal(t, -1, ix.Functions[1].ClassOrd)

	assert.Equal(t, 5, ix.LocationCount())
}

func TestIndexerImportAlias(t *testing.T) {
	ix := NewIndexer()
	ix.AddFile(&parser.ParsedFile{
		Path:      "src/np.py",
		Module:    "np",
		LineCount: 2,
		Imports: []parser.Import{
			{Module: "numpy", Names: []string{"numpy"}, Alias: "np", Line: 1},
			{Module: "os", Names: []string{"os"}, Line: 2},
		},
	})

	require.Len(t, ix.Imports, 2)
	alias, ok := ix.Names.At(ix.Imports[0].AliasIdx)
	require.True(t, ok)
	assert.Equal(t, "np", alias)
	assert.Equal(t, -1, ix.Imports[1].AliasIdx)
}

func TestIndexerSignatures(t *testing.T) {
	ix := NewIndexer()
	ix.AddFile(sampleFile())

	sig, ok := ix.Signatures[4] // the save method
	require.True(t, ok)
	require.Len(t, sig.Params, 2)

	selfRow := sig.Params[0]
	name, _ := ix.Names.At(selfRow[0])
	assert.Equal(t, "self", name)
	assert.Equal(t, int(parser.ParamPositional), selfRow[1])
	assert.Equal(t, -1, selfRow[2])
	assert.Equal(t, -1, selfRow[3])

	forceRow := sig.Params[1]
	def, _ := ix.Defaults.At(forceRow[3])
	assert.Equal(t, "False", def)

	ret, _ := ix.Names.At(sig.Return)
	assert.Equal(t, "None", ret)
}

func TestIndexerSpansAndDocstrings(t *testing.T) {
	ix := NewIndexer()
	ix.AddFile(sampleFile())

	// Every location id has exactly one span.
	seen := map[int]bool{}
	for _, span := range ix.Spans {
		assert.False(t, seen[span.LocID], "duplicate span for loc %d", span.LocID)
		seen[span.LocID] = true
	}
	assert.Len(t, seen, ix.LocationCount())

	require.Len(t, ix.Docstrings, 3) // module, class, none for helper/save
	assert.Equal(t, 1, ix.Docstrings[0].LocID)
	assert.Equal(t, "Models.", ix.Docstrings[0].Text)
	assert.Equal(t, 3, ix.Docstrings[1].LocID)
}

func TestIndexerCommentAttachment(t *testing.T) {
	ix := NewIndexer()
	ix.AddFile(sampleFile())

	require.Len(t, ix.Comments, 3)
	byText := map[string]int{}
	for _, c := range ix.Comments {
		byText[c.Text] = c.LocID
	}
	assert.Equal(t, 1, byText["module comment"])      // outside every entity
	assert.Equal(t, 4, byText["inside save"])         // innermost is the method
	assert.Equal(t, 3, byText["inside class body"])   // class but not a method
}

func TestIndexerInterningSharedAcrossFiles(t *testing.T) {
	ix := NewIndexer()
	ix.AddFile(sampleFile())
	second := sampleFile()
	second.Path = "src/other.py"
	ix.AddFile(second)

	assert.Equal(t, 2, ix.Files.Len())
	// "User", "save" etc. interned once despite appearing in both files.
	count := 0
	for _, v := range ix.Names.Values() {
		if v == "User" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	// Location ids keep increasing across files.
	assert.Equal(t, 10, ix.LocationCount())
	assert.Equal(t, 6, ix.Modules[1].LocID)
}
