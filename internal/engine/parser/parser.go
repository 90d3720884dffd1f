package parser

import (
	"log/slog"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"pyndex/internal/core/errors"
	"pyndex/internal/shared/fsutil"
	"pyndex/internal/shared/observability"
)

// Parser parses Python sources into ParsedFile values. Not safe for
// concurrent use; each worker owns its own Parser.
type Parser struct {
	loader    *GrammarLoader
	parser    *sitter.Parser
	extractor *PythonExtractor
	maxSize   int64
	encodings []string
	logger    *slog.Logger
}

type Option func(*Parser)

func WithMaxFileSize(n int64) Option {
	return func(p *Parser) { p.maxSize = n }
}

func WithEncodings(encodings []string) Option {
	return func(p *Parser) { p.encodings = encodings }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

func New(opts ...Option) (*Parser, error) {
	p := &Parser{
		loader:    NewGrammarLoader(),
		parser:    sitter.NewParser(),
		extractor: &PythonExtractor{},
		maxSize:   fsutil.DefaultMaxFileSize,
		encodings: fsutil.DefaultEncodings,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	lang, ok := p.loader.Language("python")
	if !ok {
		return nil, errors.New(errors.CodeNotSupported, "python grammar not available")
	}
	if err := p.parser.SetLanguage(lang); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to bind python grammar")
	}
	return p, nil
}

// ParseFile reads and parses one file. Size and encoding failures come back
// as recoverable domain errors so callers can skip the file and continue.
func (p *Parser) ParseFile(path string) (*ParsedFile, error) {
	source, err := fsutil.ReadSource(path, p.maxSize, p.encodings)
	if err != nil {
		return nil, err
	}
	return p.ParseSource(path, source)
}

// ParseSource parses in-memory content. Trees containing syntax errors are
// rejected rather than partially indexed.
func (p *Parser) ParseSource(path string, source []byte) (*ParsedFile, error) {
	start := time.Now()
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		err := errors.New(errors.CodeParseFailed, "parser returned no tree")
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		err := errors.New(errors.CodeParseFailed, "source contains syntax errors")
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}

	file := p.extractor.Extract(root, source, path)

	observability.FilesParsedTotal.Inc()
	observability.ParseDuration.Observe(time.Since(start).Seconds())
	p.logger.Debug("parsed file",
		"path", path,
		"classes", len(file.Classes),
		"functions", len(file.Functions),
		"imports", len(file.Imports),
	)
	return file, nil
}
