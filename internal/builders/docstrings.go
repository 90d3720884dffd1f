package builders

import (
	"pyndex/internal/core/errors"
	"pyndex/internal/index"
)

// DocstringsDoc interns docstring texts and file paths into its own tables,
// independent of the structure artifact, so the docstrings file can be
// refreshed without touching the others. Entries are
// [loc_id, [[text_idx, file_idx, line_start, line_end], ...]].
type DocstringsDoc struct {
	Meta    Meta      `json:"meta"`
	Texts   []string  `json:"texts"`
	Files   []string  `json:"files"`
	Entries [][2]any  `json:"entries"`
}

type DocstringsBuilder struct {
	texts   *index.Table
	files   *index.Table
	order   []int
	entries map[int][][4]int
	frozen  bool
}

func NewDocstrings() *DocstringsBuilder {
	return &DocstringsBuilder{
		texts:   index.NewTable(),
		files:   index.NewTable(),
		entries: make(map[int][][4]int),
	}
}

func (b *DocstringsBuilder) Add(entry index.DocEntry) error {
	if b.frozen {
		return errors.New(errors.CodeBuilderFrozen, "docstrings builder already built")
	}
	if _, seen := b.entries[entry.LocID]; !seen {
		b.order = append(b.order, entry.LocID)
	}
	b.entries[entry.LocID] = append(b.entries[entry.LocID], [4]int{
		b.texts.Intern(entry.Text),
		b.files.Intern(entry.Path),
		entry.LineStart,
		entry.LineEnd,
	})
	return nil
}

func (b *DocstringsBuilder) Build(meta Meta) (*DocstringsDoc, error) {
	if b.frozen {
		return nil, errors.New(errors.CodeBuilderFrozen, "docstrings builder already built")
	}
	b.frozen = true

	doc := &DocstringsDoc{
		Meta:    meta,
		Texts:   b.texts.Values(),
		Files:   b.files.Values(),
		Entries: [][2]any{},
	}
	for _, loc := range b.order {
		doc.Entries = append(doc.Entries, [2]any{loc, b.entries[loc]})
	}
	return doc, nil
}
