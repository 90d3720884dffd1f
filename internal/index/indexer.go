package index

import (
	"pyndex/internal/engine/parser"
	"pyndex/internal/shared/observability"
)

// Record rows mirror the structure-artifact tables. All string fields are
// indices into the Indexer's interning tables; -1 marks an absent value.

type ModuleRecord struct {
	NameIdx int
	FileIdx int
	LocID   int
}

type AttrRecord struct {
	NameIdx    int
	TypeIdx    int
	DefaultIdx int
}

type ClassRecord struct {
	NameIdx int
	FileIdx int
	LocID   int
	Bases   []int
	Attrs   []AttrRecord
}

type FunctionRecord struct {
	NameIdx  int
	ClassOrd int // index into Classes, -1 for module-level functions
	FileIdx  int
	LocID    int
}

type ImportRecord struct {
	ModuleIdx int // -1 for pure relative imports (from . import x)
	FileIdx   int
	LocID     int
	Level     int
	Names     []int
	AliasIdx  int // -1 when the import has no "as" alias
}

// Signature is the sparse per-function parameter table. Each param row is
// [name_idx, kind_ordinal, type_idx|-1, default_idx|-1].
type Signature struct {
	Params [][4]int
	Return int
}

type Span struct {
	LocID     int
	FileIdx   int
	LineStart int
	LineEnd   int
}

// DocEntry and CommentEntry carry raw text; the docstrings and comments
// builders intern into their own tables.
type DocEntry struct {
	LocID     int
	Text      string
	Path      string
	LineStart int
	LineEnd   int
}

type CommentEntry struct {
	LocID int
	Text  string
	Path  string
	Line  int
}

// Entity ties a parsed definition to its allocated location id, for the
// analyzers to reference in findings.
type FuncEntity struct {
	LocID int
	Def   *parser.FunctionDef
}

type ClassEntity struct {
	LocID   int
	Def     *parser.ClassDef
	Methods []FuncEntity
}

// FileEntities is the per-file view returned by AddFile.
type FileEntities struct {
	Source    *parser.ParsedFile
	FileIdx   int
	ModuleLoc int
	Classes   []ClassEntity
	Functions []FuncEntity
}

// Indexer accumulates one run's entity records across files, allocating
// location ids and interning strings as entities arrive. Files are added
// in scan order; ids therefore reflect that order.
type Indexer struct {
	Names    *Table
	Files    *Table
	Defaults *Table

	locs *Allocator

	Modules    []ModuleRecord
	Classes    []ClassRecord
	Functions  []FunctionRecord
	Imports    []ImportRecord
	Spans      []Span
	Docstrings []DocEntry
	Comments   []CommentEntry
	Decorators map[int][]int
	Signatures map[int]Signature
}

func NewIndexer() *Indexer {
	return &Indexer{
		Names:      NewTable(),
		Files:      NewTable(),
		Defaults:   NewTable(),
		locs:       NewAllocator(),
		Decorators: make(map[int][]int),
		Signatures: make(map[int]Signature),
	}
}

// LocationCount returns the number of location ids allocated so far.
func (ix *Indexer) LocationCount() int {
	return ix.locs.Count()
}

// AddFile registers every structural entity of one parsed file: the module
// itself, imports, classes with their methods, and module-level functions.
func (ix *Indexer) AddFile(pf *parser.ParsedFile) *FileEntities {
	fileIdx := ix.Files.Intern(pf.Path)
	ents := &FileEntities{Source: pf, FileIdx: fileIdx}

	ents.ModuleLoc = ix.locs.Next()
	ix.Modules = append(ix.Modules, ModuleRecord{
		NameIdx: ix.Names.Intern(pf.Module),
		FileIdx: fileIdx,
		LocID:   ents.ModuleLoc,
	})
	ix.addSpan(ents.ModuleLoc, fileIdx, 1, pf.LineCount)
	if pf.Docstring != nil {
		ix.addDocstring(ents.ModuleLoc, pf.Path, pf.Docstring)
	}
	observability.EntitiesRegistered.WithLabelValues("module").Inc()

	for i := range pf.Imports {
		ix.addImport(fileIdx, &pf.Imports[i])
	}
	for i := range pf.Classes {
		ents.Classes = append(ents.Classes, ix.addClass(fileIdx, pf.Path, &pf.Classes[i]))
	}
	for i := range pf.Functions {
		fn := &pf.Functions[i]
		ents.Functions = append(ents.Functions, ix.addFunction(fileIdx, pf.Path, fn, -1))
	}

	ix.attachComments(ents, pf)

	observability.InternedNames.Set(float64(ix.Names.Len()))
	observability.InternedFiles.Set(float64(ix.Files.Len()))
	observability.InternedDefaults.Set(float64(ix.Defaults.Len()))
	return ents
}

func (ix *Indexer) addImport(fileIdx int, imp *parser.Import) {
	loc := ix.locs.Next()
	rec := ImportRecord{
		ModuleIdx: -1,
		FileIdx:   fileIdx,
		LocID:     loc,
		Level:     imp.Level,
		AliasIdx:  -1,
	}
	if imp.Module != "" {
		rec.ModuleIdx = ix.Names.Intern(imp.Module)
	}
	for _, name := range imp.Names {
		rec.Names = append(rec.Names, ix.Names.Intern(name))
	}
	if imp.Alias != "" {
		rec.AliasIdx = ix.Names.Intern(imp.Alias)
	}
	ix.Imports = append(ix.Imports, rec)
	ix.addSpan(loc, fileIdx, imp.Line, imp.Line)
	observability.EntitiesRegistered.WithLabelValues("import").Inc()
}

func (ix *Indexer) addClass(fileIdx int, path string, cls *parser.ClassDef) ClassEntity {
	loc := ix.locs.Next()
	rec := ClassRecord{
		NameIdx: ix.Names.Intern(cls.Name),
		FileIdx: fileIdx,
		LocID:   loc,
	}
	for _, base := range cls.Bases {
		rec.Bases = append(rec.Bases, ix.Names.Intern(base))
	}
	for _, attr := range cls.Attributes {
		row := AttrRecord{
			NameIdx:    ix.Names.Intern(attr.Name),
			TypeIdx:    -1,
			DefaultIdx: -1,
		}
		if attr.TypeHint != "" {
			row.TypeIdx = ix.Names.Intern(attr.TypeHint)
		}
		if attr.HasDefault {
			row.DefaultIdx = ix.Defaults.Intern(attr.Default)
		}
		rec.Attrs = append(rec.Attrs, row)
	}
	classOrd := len(ix.Classes)
	ix.Classes = append(ix.Classes, rec)

	ix.addDecorators(loc, cls.Decorators)
	ix.addSpan(loc, fileIdx, cls.LineStart, cls.LineEnd)
	if cls.Docstring != nil {
		ix.addDocstring(loc, path, cls.Docstring)
	}
	observability.EntitiesRegistered.WithLabelValues("class").Inc()

	ent := ClassEntity{LocID: loc, Def: cls}
	for i := range cls.Methods {
		ent.Methods = append(ent.Methods, ix.addFunction(fileIdx, path, &cls.Methods[i], classOrd))
	}
	return ent
}

func (ix *Indexer) addFunction(fileIdx int, path string, fn *parser.FunctionDef, classOrd int) FuncEntity {
	loc := ix.locs.Next()
	ix.Functions = append(ix.Functions, FunctionRecord{
		NameIdx:  ix.Names.Intern(fn.Name),
		ClassOrd: classOrd,
		FileIdx:  fileIdx,
		LocID:    loc,
	})

	sig := Signature{Return: -1}
	if fn.ReturnType != "" {
		sig.Return = ix.Names.Intern(fn.ReturnType)
	}
	for _, p := range fn.Parameters {
		row := [4]int{ix.Names.Intern(p.Name), int(p.Kind), -1, -1}
		if p.TypeHint != "" {
			row[2] = ix.Names.Intern(p.TypeHint)
		}
		if p.HasDefault {
			row[3] = ix.Defaults.Intern(p.Default)
		}
		sig.Params = append(sig.Params, row)
	}
	ix.Signatures[loc] = sig

	ix.addDecorators(loc, fn.Decorators)
	ix.addSpan(loc, fileIdx, fn.LineStart, fn.LineEnd)
	if fn.Docstring != nil {
		ix.addDocstring(loc, path, fn.Docstring)
	}
	observability.EntitiesRegistered.WithLabelValues("function").Inc()
	return FuncEntity{LocID: loc, Def: fn}
}

func (ix *Indexer) addDecorators(loc int, decorators []string) {
	if len(decorators) == 0 {
		return
	}
	idxs := make([]int, 0, len(decorators))
	for _, dec := range decorators {
		idxs = append(idxs, ix.Names.Intern(dec))
	}
	ix.Decorators[loc] = idxs
}

func (ix *Indexer) addSpan(loc, fileIdx, start, end int) {
	ix.Spans = append(ix.Spans, Span{LocID: loc, FileIdx: fileIdx, LineStart: start, LineEnd: end})
}

func (ix *Indexer) addDocstring(loc int, path string, doc *parser.Docstring) {
	ix.Docstrings = append(ix.Docstrings, DocEntry{
		LocID:     loc,
		Text:      doc.Text,
		Path:      path,
		LineStart: doc.LineStart,
		LineEnd:   doc.LineEnd,
	})
}

// attachComments assigns each comment to the innermost class or function
// whose line span contains it, falling back to the file's module.
func (ix *Indexer) attachComments(ents *FileEntities, pf *parser.ParsedFile) {
	type ownedSpan struct {
		loc        int
		start, end int
	}
	var spans []ownedSpan
	for _, cls := range ents.Classes {
		spans = append(spans, ownedSpan{cls.LocID, cls.Def.LineStart, cls.Def.LineEnd})
		for _, m := range cls.Methods {
			spans = append(spans, ownedSpan{m.LocID, m.Def.LineStart, m.Def.LineEnd})
		}
	}
	for _, fn := range ents.Functions {
		spans = append(spans, ownedSpan{fn.LocID, fn.Def.LineStart, fn.Def.LineEnd})
	}

	for _, c := range pf.Comments {
		owner := ents.ModuleLoc
		best := -1
		for _, s := range spans {
			if c.Line < s.start || c.Line > s.end {
				continue
			}
			width := s.end - s.start
			if best == -1 || width < best {
				best = width
				owner = s.loc
			}
		}
		ix.Comments = append(ix.Comments, CommentEntry{
			LocID: owner,
			Text:  c.Text,
			Path:  pf.Path,
			Line:  c.Line,
		})
	}
}
