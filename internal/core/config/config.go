package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"pyndex/internal/core/errors"
	"pyndex/internal/shared/fsutil"
)

// Config drives one indexing run. Loaded from pyndex.toml; every field has a
// working default so a missing config file is not an error.
type Config struct {
	Version int     `toml:"version"`
	Project string  `toml:"project"`
	Scan    Scan    `toml:"scan"`
	Parse   Parse   `toml:"parse"`
	Output  Output  `toml:"output"`
	History History `toml:"history"`
	Watch   Watch   `toml:"watch"`
	Tracing Tracing `toml:"tracing"`
}

type Scan struct {
	// Include patterns use doublestar syntax relative to the project root.
	Include []string `toml:"include"`
	// ExcludeDirs are directory basenames skipped anywhere in the tree.
	ExcludeDirs []string `toml:"exclude_dirs"`
	// ExcludeFiles are glob patterns matched against the relative path.
	ExcludeFiles []string `toml:"exclude_files"`
}

type Parse struct {
	MaxFileSize       int64    `toml:"max_file_size"`
	EncodingFallbacks []string `toml:"encoding_fallbacks"`
}

type Output struct {
	Dir           string `toml:"dir"`
	Format        string `toml:"format"` // json, json.gz, msgpack
	Minify        bool   `toml:"minify"`
	CompressNames bool   `toml:"compress_names"`
	HashLength    int    `toml:"hash_length"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce  time.Duration `toml:"debounce"`
	MaxPerMin int           `toml:"max_runs_per_minute"`
}

type Tracing struct {
	Enabled      bool   `toml:"enabled"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// ValidFormats are the accepted artifact serialization formats.
var ValidFormats = []string{"json", "json.gz", "msgpack"}

// DefaultExcludeDirs is the fixed tooling-directory exclusion list. Config
// values are appended to it, never replace it.
var DefaultExcludeDirs = []string{
	".git", ".hg", ".svn",
	".venv", "venv", "env",
	"__pycache__", ".mypy_cache", ".pytest_cache", ".ruff_cache",
	"node_modules", "build", "dist", ".tox", ".eggs",
}

func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyDefaults(&cfg)
			return &cfg, nil
		}
		return nil, errors.Wrap(err, errors.CodeNotFound, "read config file")
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode config file")
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Scan.Include) == 0 {
		cfg.Scan.Include = []string{"**/*.py"}
	}
	cfg.Scan.ExcludeDirs = append(append([]string{}, DefaultExcludeDirs...), cfg.Scan.ExcludeDirs...)
	if cfg.Parse.MaxFileSize == 0 {
		cfg.Parse.MaxFileSize = fsutil.DefaultMaxFileSize
	}
	if len(cfg.Parse.EncodingFallbacks) == 0 {
		cfg.Parse.EncodingFallbacks = append([]string{}, fsutil.DefaultEncodings...)
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "./index"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "json"
	}
	if cfg.Output.HashLength == 0 {
		cfg.Output.HashLength = 16
	}
	if cfg.History.Path == "" {
		cfg.History.Path = "./index/history.db"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxPerMin == 0 {
		cfg.Watch.MaxPerMin = 12
	}
}

func (c *Config) Validate() error {
	if c.Version != 1 {
		return errors.Newf(errors.CodeValidationError, "unsupported config version %d", c.Version)
	}
	if !validFormat(c.Output.Format) {
		return errors.Newf(errors.CodeValidationError,
			"invalid output format %q, must be one of %v", c.Output.Format, ValidFormats)
	}
	if err := fsutil.ValidateHashLength(c.Output.HashLength); err != nil {
		return err
	}
	if c.Parse.MaxFileSize < 0 {
		return errors.Newf(errors.CodeValidationError,
			"max_file_size must be positive, got %d", c.Parse.MaxFileSize)
	}
	return nil
}

func validFormat(format string) bool {
	for _, f := range ValidFormats {
		if format == f {
			return true
		}
	}
	return false
}
