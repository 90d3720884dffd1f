// Package scan walks a project tree and yields the source files to index,
// in deterministic order.
package scan

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"

	"pyndex/internal/core/config"
	"pyndex/internal/core/errors"
)

// Scanner matches files under a root against include patterns (doublestar
// syntax) and exclusion rules: directory basenames skipped anywhere in the
// tree, plus glob patterns over the relative path.
type Scanner struct {
	include      []string
	excludeDirs  map[string]bool
	excludeFiles []glob.Glob
	logger       *slog.Logger
}

func New(cfg config.Scan, logger *slog.Logger) (*Scanner, error) {
	s := &Scanner{
		include:     cfg.Include,
		excludeDirs: make(map[string]bool, len(cfg.ExcludeDirs)),
		logger:      logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	for _, pattern := range cfg.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Newf(errors.CodeValidationError, "invalid include pattern %q", pattern)
		}
	}
	for _, dir := range cfg.ExcludeDirs {
		s.excludeDirs[dir] = true
	}
	for _, pattern := range cfg.ExcludeFiles {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError,
				"invalid exclude pattern "+pattern)
		}
		s.excludeFiles = append(s.excludeFiles, g)
	}
	return s, nil
}

// Scan returns the relative paths of all matching files under root, sorted.
// Unreadable subtrees are logged and skipped.
func (s *Scanner) Scan(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.Newf(errors.CodeNotFound, "project root not found: %s", root)
	}

	var matches []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && s.excludeDirs[d.Name()] {
				s.logger.Debug("excluded directory", "path", rel)
				return filepath.SkipDir
			}
			return nil
		}
		if !s.matchesInclude(rel) || s.matchesExclude(rel) {
			return nil
		}
		matches = append(matches, rel)
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrap(walkErr, errors.CodeInternal, "walk project tree")
	}

	sort.Strings(matches)
	s.logger.Info("scanned project", "root", root, "files", len(matches))
	return matches, nil
}

func (s *Scanner) matchesInclude(rel string) bool {
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// "**/*.py" should also match files in the root itself.
		if trimmed, found := strings.CutPrefix(pattern, "**/"); found {
			if ok, _ := doublestar.Match(trimmed, rel); ok {
				return true
			}
		}
	}
	return false
}

func (s *Scanner) matchesExclude(rel string) bool {
	for _, g := range s.excludeFiles {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
