package builders

import (
	"pyndex/internal/core/errors"
	"pyndex/internal/index"
)

// CommentsDoc mirrors DocstringsDoc for # comments. Entries are
// [loc_id, [[text_idx, file_idx, line], ...]]; the location id is the
// innermost entity containing the comment line.
type CommentsDoc struct {
	Meta    Meta      `json:"meta"`
	Texts   []string  `json:"texts"`
	Files   []string  `json:"files"`
	Entries [][2]any  `json:"entries"`
}

type CommentsBuilder struct {
	texts   *index.Table
	files   *index.Table
	order   []int
	entries map[int][][3]int
	frozen  bool
}

func NewComments() *CommentsBuilder {
	return &CommentsBuilder{
		texts:   index.NewTable(),
		files:   index.NewTable(),
		entries: make(map[int][][3]int),
	}
}

func (b *CommentsBuilder) Add(entry index.CommentEntry) error {
	if b.frozen {
		return errors.New(errors.CodeBuilderFrozen, "comments builder already built")
	}
	if _, seen := b.entries[entry.LocID]; !seen {
		b.order = append(b.order, entry.LocID)
	}
	b.entries[entry.LocID] = append(b.entries[entry.LocID], [3]int{
		b.texts.Intern(entry.Text),
		b.files.Intern(entry.Path),
		entry.Line,
	})
	return nil
}

func (b *CommentsBuilder) Build(meta Meta) (*CommentsDoc, error) {
	if b.frozen {
		return nil, errors.New(errors.CodeBuilderFrozen, "comments builder already built")
	}
	b.frozen = true

	doc := &CommentsDoc{
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
