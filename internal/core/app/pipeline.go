// Package app wires the indexing pipeline: scan, parse, index, analyze,
// build, serialize, and optionally record history.
package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pyndex/internal/builders"
	"pyndex/internal/core/config"
	"pyndex/internal/core/errors"
	"pyndex/internal/data/history"
	"pyndex/internal/engine/analysis"
	"pyndex/internal/engine/parser"
	"pyndex/internal/index"
	"pyndex/internal/scan"
	"pyndex/internal/serialize"
	"pyndex/internal/shared/fsutil"
	"pyndex/internal/shared/observability"
)

// Result summarizes one completed run.
type Result struct {
	RunID        string
	FilesIndexed int
	FilesSkipped int
	Names        int
	Files        int
	Defaults     int
	Locations    int
	Findings     int
	Artifacts    []string
	Duration     time.Duration
}

type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *history.Store // nil when history is disabled
}

func NewPipeline(cfg *config.Config, logger *slog.Logger, store *history.Store) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, logger: logger, store: store}
}

// Run indexes the project under root and writes the four artifacts. Per-file
// parse failures are skipped and logged; output failures abort the run.
func (p *Pipeline) Run(ctx context.Context, root string) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	ctx, span := observability.Tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("project.root", root)))
	defer span.End()

	files, err := p.scanStage(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Newf(errors.CodeValidationError,
			"no matching source files under %s", root)
	}

	ix, report, coordMeta, skipped, err := p.parseStage(ctx, root, files, logger)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:        runID,
		FilesIndexed: ix.Files.Len(),
		FilesSkipped: skipped,
		Names:        ix.Names.Len(),
		Files:        ix.Files.Len(),
		Defaults:     ix.Defaults.Len(),
		Locations:    ix.LocationCount(),
		Findings:     report.FindingCount(),
	}

	artifacts, err := p.buildStage(ctx, runID, ix, report, coordMeta)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Duration = time.Since(started)

	if p.store != nil {
		if err := p.recordRun(ctx, result, started); err != nil {
			// History is auxiliary; a failed snapshot does not fail the run.
			logger.Warn("failed to record run history", "error", err)
		}
	}

	observability.RunsTotal.Inc()
	logger.Info("run complete",
		"files", result.FilesIndexed,
		"skipped", result.FilesSkipped,
		"locations", result.Locations,
		"findings", result.Findings,
		"duration", result.Duration,
	)
	return result, nil
}

func (p *Pipeline) scanStage(ctx context.Context, root string) ([]string, error) {
	_, span := observability.Tracer.Start(ctx, "pipeline.scan")
	defer span.End()

	scanner, err := scan.New(p.cfg.Scan, p.logger)
	if err != nil {
		return nil, err
	}
	return scanner.Scan(root)
}

func (p *Pipeline) parseStage(ctx context.Context, root string, files []string, logger *slog.Logger) (
	*index.Indexer, *analysis.Report, map[string]builders.FileMeta, int, error,
) {
	_, span := observability.Tracer.Start(ctx, "pipeline.parse")
	defer span.End()

	pyParser, err := parser.New(
		parser.WithMaxFileSize(p.cfg.Parse.MaxFileSize),
		parser.WithEncodings(p.cfg.Parse.EncodingFallbacks),
		parser.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, nil, 0, err
	}

	ix := index.NewIndexer()
	analyzer := analysis.New(ix)
	coordMeta := make(map[string]builders.FileMeta)
	skipped := 0

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, 0, errors.Wrap(err, errors.CodeInternal, "run cancelled")
		}
		abs := filepath.Join(root, rel)

		pf, err := pyParser.ParseFile(abs)
		if err == nil {
			// Artifacts record project-relative paths.
			pf.Path = rel
			ents := ix.AddFile(pf)
			analyzer.AnalyzeFile(ents)
			coordMeta[rel] = p.fileMeta(abs, pf.Source)
			continue
		}

		if !errors.Recoverable(err) {
			return nil, nil, nil, 0, err
		}
		skipped++
		logger.Warn("skipping file", "path", rel, "error", err)
		observability.FilesSkippedTotal.WithLabelValues(skipReason(err)).Inc()
	}
	return ix, analyzer.Finish(), coordMeta, skipped, nil
}

func (p *Pipeline) fileMeta(abs string, content []byte) builders.FileMeta {
	hash, err := fsutil.HashContent(content, p.cfg.Output.HashLength)
	if err != nil {
		hash = ""
	}
	return builders.FileMeta{
		Size:     fsutil.FileSize(abs),
		Modified: fsutil.FileModified(abs),
		Hash:     hash,
	}
}

func (p *Pipeline) buildStage(ctx context.Context, runID string, ix *index.Indexer,
	report *analysis.Report, coordMeta map[string]builders.FileMeta,
) ([]string, error) {
	_, span := observability.Tracer.Start(ctx, "pipeline.build")
	defer span.End()

	if err := fsutil.EnsureDir(p.cfg.Output.Dir); err != nil {
		return nil, err
	}
	meta := builders.NewMeta(p.cfg.Project, runID)
	format := serialize.Format(p.cfg.Output.Format)

	var artifacts []string
	write := func(name string, doc any) error {
		start := time.Now()
		path, err := serialize.WriteArtifact(p.cfg.Output.Dir, name, doc, format, p.cfg.Output.Minify)
		if err != nil {
			return err
		}
		observability.BuildDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		artifacts = append(artifacts, path)
		return nil
	}

	sb := builders.NewStructure()
	if err := sb.AddIndex(ix); err != nil {
		return nil, err
	}
	if err := sb.AddAnalysis(report); err != nil {
		return nil, err
	}
	structure, err := sb.Build(meta, p.cfg.Output.CompressNames)
	if err != nil {
		return nil, err
	}
	if err := write("structure", structure); err != nil {
		return nil, err
	}

	cb := builders.NewCoordinates()
	if err := cb.AddIndex(ix); err != nil {
		return nil, err
	}
	for path, fm := range coordMeta {
		if err := cb.AddFileMeta(path, fm); err != nil {
			return nil, err
		}
	}
	coords, err := cb.Build(meta)
	if err != nil {
		return nil, err
	}
	if err := write("coordinates", coords); err != nil {
		return nil, err
	}

	db := builders.NewDocstrings()
	for _, entry := range ix.Docstrings {
		if err := db.Add(entry); err != nil {
			return nil, err
		}
	}
	docstrings, err := db.Build(meta)
	if err != nil {
		return nil, err
	}
	if err := write("docstrings", docstrings); err != nil {
		return nil, err
	}

	cmb := builders.NewComments()
	for _, entry := range ix.Comments {
		if err := cmb.Add(entry); err != nil {
			return nil, err
		}
	}
	comments, err := cmb.Build(meta)
	if err != nil {
		return nil, err
	}
	if err := write("comments", comments); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func (p *Pipeline) recordRun(ctx context.Context, result *Result, started time.Time) error {
	return p.store.RecordRun(ctx, history.RunRecord{
		RunID:        result.RunID,
		Project:      p.cfg.Project,
		Started:      started,
		Duration:     result.Duration,
		FilesIndexed: result.FilesIndexed,
		FilesSkipped: result.FilesSkipped,
		Names:        result.Names,
		Files:        result.Files,
		Defaults:     result.Defaults,
		Locations:    result.Locations,
		Findings:     result.Findings,
	})
}

func skipReason(err error) string {
	switch {
	case errors.IsCode(err, errors.CodeFileTooLarge):
		return "too_large"
	case errors.IsCode(err, errors.CodeUndecodable):
		return "undecodable"
	case errors.IsCode(err, errors.CodeParseFailed):
		return "parse_failed"
	default:
		return "other"
	}
}
