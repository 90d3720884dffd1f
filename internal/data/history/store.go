// Package history persists per-run statistics snapshots in a local SQLite
// database, so successive runs over a project can be compared.
package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pyndex/internal/core/errors"
	"pyndex/internal/shared/fsutil"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL UNIQUE,
	project       TEXT NOT NULL,
	started       TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL,
	files_indexed INTEGER NOT NULL,
	files_skipped INTEGER NOT NULL,
	names         INTEGER NOT NULL,
	files         INTEGER NOT NULL,
	defaults      INTEGER NOT NULL,
	locations     INTEGER NOT NULL,
	findings      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project, started);
`

// RunRecord is one run's statistics snapshot.
type RunRecord struct {
	RunID        string
	Project      string
	Started      time.Time
	Duration     time.Duration
	FilesIndexed int
	FilesSkipped int
	Names        int
	Files        int
	Defaults     int
	Locations    int
	Findings     int
}

type Store struct {
	db *sql.DB
}

// Open creates or opens the history database, creating parent directories
// and the schema as needed. WAL keeps concurrent watch-mode writes cheap.
func Open(path string) (*Store, error) {
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "open history database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CodeInternal, "apply history schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, project, started, duration_ms,
			files_indexed, files_skipped, names, files, defaults, locations, findings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Project, rec.Started.UTC().Format(time.RFC3339Nano),
		rec.Duration.Milliseconds(), rec.FilesIndexed, rec.FilesSkipped,
		rec.Names, rec.Files, rec.Defaults, rec.Locations, rec.Findings,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "record run")
	}
	return nil
}

// RecentRuns returns up to limit runs for a project, newest first.
func (s *Store) RecentRuns(ctx context.Context, project string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, project, started, duration_ms,
			files_indexed, files_skipped, names, files, defaults, locations, findings
		FROM runs WHERE project = ? ORDER BY started DESC LIMIT ?`,
		project, limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "query runs")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var started string
		var durationMs int64
		if err := rows.Scan(&rec.RunID, &rec.Project, &started, &durationMs,
			&rec.FilesIndexed, &rec.FilesSkipped, &rec.Names, &rec.Files,
			&rec.Defaults, &rec.Locations, &rec.Findings); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "scan run row")
		}
		if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
			rec.Started = ts
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}
