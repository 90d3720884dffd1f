package builders

import (
	"pyndex/internal/core/errors"
	"pyndex/internal/index"
)

// CoordinatesDoc maps every location id to its file and line span, and
// carries per-file metadata aligned with the files table.
type CoordinatesDoc struct {
	Meta     Meta     `json:"meta"`
	Files    []string `json:"files"`
	Sizes    []int64  `json:"sizes"`
	Modified []string `json:"modified"`
	Hashes   []string `json:"hashes"`
	// spans[i] = [loc_id, file_idx, line_start, line_end]
	Spans [][4]int `json:"spans"`
}

// FileMeta is the per-file metadata recorded alongside spans.
type FileMeta struct {
	Size     int64
	Modified string // RFC 3339 UTC
	Hash     string // truncated SHA-256
}

type CoordinatesBuilder struct {
	ix     *index.Indexer
	meta   map[string]FileMeta
	frozen bool
}

func NewCoordinates() *CoordinatesBuilder {
	return &CoordinatesBuilder{meta: make(map[string]FileMeta)}
}

func (b *CoordinatesBuilder) AddIndex(ix *index.Indexer) error {
	if b.frozen {
		return errors.New(errors.CodeBuilderFrozen, "coordinates builder already built")
	}
	b.ix = ix
	return nil
}

// AddFileMeta records size/mtime/hash for one indexed file path.
func (b *CoordinatesBuilder) AddFileMeta(path string, meta FileMeta) error {
	if b.frozen {
		return errors.New(errors.CodeBuilderFrozen, "coordinates builder already built")
	}
	b.meta[path] = meta
	return nil
}

func (b *CoordinatesBuilder) Build(meta Meta) (*CoordinatesDoc, error) {
	if b.frozen {
		return nil, errors.New(errors.CodeBuilderFrozen, "coordinates builder already built")
	}
	if b.ix == nil {
		return nil, errors.New(errors.CodeValidationError, "coordinates builder has no index")
	}
	b.frozen = true

	files := b.ix.Files.Values()
	doc := &CoordinatesDoc{
		Meta:     meta,
		Files:    files,
		Sizes:    make([]int64, len(files)),
		Modified: make([]string, len(files)),
		Hashes:   make([]string, len(files)),
	}
	for i, path := range files {
		fm := b.meta[path]
		doc.Sizes[i] = fm.Size
		doc.Modified[i] = fm.Modified
		doc.Hashes[i] = fm.Hash
	}
	for _, span := range b.ix.Spans {
		doc.Spans = append(doc.Spans, [4]int{span.LocID, span.FileIdx, span.LineStart, span.LineEnd})
	}
	return doc, nil
}
