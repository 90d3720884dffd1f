package builders

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"pyndex/internal/core/errors"
	"pyndex/internal/engine/analysis"
	"pyndex/internal/index"
)

// StructureDoc is the structure artifact: the interning tables, the entity
// tables, the sparse decorator/signature side tables, and the analysis
// findings. Entity rows reference strings only through table indices; the
// location id in each row joins it to the other artifacts.
type StructureDoc struct {
	Meta     Meta     `json:"meta"`
	Names    []string `json:"names,omitempty"`
	NamesGz  string   `json:"names_gz,omitempty"`
	Files    []string `json:"files"`
	Defaults []string `json:"defaults"`

	// modules[i] = [name_idx, file_idx, -1, loc_id]
	Modules [][4]int `json:"modules"`
	Classes []ClassEntry `json:"classes"`
	// functions[i] = [name_idx, class_ord|-1, file_idx, loc_id]
	Functions [][4]int      `json:"functions"`
	Imports   []ImportEntry `json:"imports"`

	Decorators map[string][]int          `json:"decorators,omitempty"`
	Signatures map[string]SignatureEntry `json:"signatures,omitempty"`

	Analysis *analysis.Report `json:"analysis,omitempty"`
}

type ClassEntry struct {
	NameIdx int      `json:"name"`
	FileIdx int      `json:"file"`
	LocID   int      `json:"loc"`
	Bases   []int    `json:"bases,omitempty"`
	Attrs   [][3]int `json:"attrs,omitempty"` // [name_idx, type_idx|-1, default_idx|-1]
}

type ImportEntry struct {
	ModuleIdx int   `json:"module"` // -1 for pure relative imports
	FileIdx   int   `json:"file"`
	LocID     int   `json:"loc"`
	Level     int   `json:"level,omitempty"`
	Names     []int `json:"names"`
	AliasIdx  int   `json:"alias"` // -1 when the import has no "as" alias
}

type SignatureEntry struct {
	// params[i] = [name_idx, kind, type_idx|-1, default_idx|-1]
	Params [][4]int `json:"params,omitempty"`
	Return int      `json:"return"`
}

// StructureBuilder assembles a StructureDoc. Build freezes the builder; any
// add after Build returns CodeBuilderFrozen.
type StructureBuilder struct {
	ix       *index.Indexer
	analysis *analysis.Report
	frozen   bool
}

func NewStructure() *StructureBuilder {
	return &StructureBuilder{}
}

func (b *StructureBuilder) AddIndex(ix *index.Indexer) error {
	if b.frozen {
		return errors.New(errors.CodeBuilderFrozen, "structure builder already built")
	}
	b.ix = ix
	return nil
}

func (b *StructureBuilder) AddAnalysis(report *analysis.Report) error {
	if b.frozen {
		return errors.New(errors.CodeBuilderFrozen, "structure builder already built")
	}
	b.analysis = report
	return nil
}

func (b *StructureBuilder) Build(meta Meta, compressNames bool) (*StructureDoc, error) {
	if b.frozen {
		return nil, errors.New(errors.CodeBuilderFrozen, "structure builder already built")
	}
	if b.ix == nil {
		return nil, errors.New(errors.CodeValidationError, "structure builder has no index")
	}
	b.frozen = true

	ix := b.ix
	doc := &StructureDoc{
		Meta:     meta,
		Files:    ix.Files.Values(),
		Defaults: ix.Defaults.Values(),
		Analysis: b.analysis,
	}

	if compressNames {
		gz, err := compressStringTable(ix.Names.Values())
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeOutputError, "failed to compress names table")
		}
		doc.NamesGz = gz
	} else {
		doc.Names = ix.Names.Values()
	}

	for _, m := range ix.Modules {
		doc.Modules = append(doc.Modules, [4]int{m.NameIdx, m.FileIdx, -1, m.LocID})
	}
	for _, c := range ix.Classes {
		doc.Classes = append(doc.Classes, ClassEntry{
			NameIdx: c.NameIdx,
			FileIdx: c.FileIdx,
			LocID:   c.LocID,
			Bases:   c.Bases,
			Attrs:   attrRows(c.Attrs),
		})
	}
	for _, f := range ix.Functions {
		doc.Functions = append(doc.Functions, [4]int{f.NameIdx, f.ClassOrd, f.FileIdx, f.LocID})
	}
	for _, imp := range ix.Imports {
		doc.Imports = append(doc.Imports, ImportEntry{
			ModuleIdx: imp.ModuleIdx,
			FileIdx:   imp.FileIdx,
			LocID:     imp.LocID,
			Level:     imp.Level,
			Names:     imp.Names,
			AliasIdx:  imp.AliasIdx,
		})
	}

	if len(ix.Decorators) > 0 {
		doc.Decorators = make(map[string][]int, len(ix.Decorators))
		for loc, names := range ix.Decorators {
			doc.Decorators[strconv.Itoa(loc)] = names
		}
	}
	if len(ix.Signatures) > 0 {
		doc.Signatures = make(map[string]SignatureEntry, len(ix.Signatures))
		for loc, sig := range ix.Signatures {
			doc.Signatures[strconv.Itoa(loc)] = SignatureEntry{
				Params: sig.Params,
				Return: sig.Return,
			}
		}
	}
	return doc, nil
}

func attrRows(attrs []index.AttrRecord) [][3]int {
	if len(attrs) == 0 {
		return nil
	}
	rows := make([][3]int, 0, len(attrs))
	for _, a := range attrs {
		rows = append(rows, [3]int{a.NameIdx, a.TypeIdx, a.DefaultIdx})
	}
	return rows
}

// compressStringTable stores the names table as gzip-compressed JSON wrapped
// in base64, for projects where the table dominates artifact size.
func compressStringTable(values []string) (string, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecompressStringTable reverses compressStringTable; readers use it to
// recover the names table.
func DecompressStringTable(encoded string) ([]string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	var values []string
	if err := json.NewDecoder(gz).Decode(&values); err != nil {
		return nil, err
	}
	return values, nil
}
