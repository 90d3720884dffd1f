// Package fsutil provides source-file reading with encoding fallback,
// size guards and file metadata helpers shared by the pipeline.
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"pyndex/internal/core/errors"
)

// DefaultMaxFileSize caps source files at 1 MiB unless overridden by config.
const DefaultMaxFileSize = 1 << 20

// DefaultEncodings is the fallback order used when the config does not
// override encoding_fallbacks.
var DefaultEncodings = []string{"utf-8", "cp1251", "latin-1"}

// ValidHashLengths are the accepted truncation lengths for content hashes.
var ValidHashLengths = []int{8, 16, 32, 64}

// ReadSource reads a source file, trying each encoding in order and
// converting the content to UTF-8. Files larger than maxSize are rejected
// with CodeFileTooLarge before any bytes are read.
func ReadSource(path string, maxSize int64, encodings []string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotFound, "stat source file")
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Newf(errors.CodeValidationError, "not a regular file: %s", path)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if info.Size() > maxSize {
		return nil, errors.Newf(errors.CodeFileTooLarge,
			"file too large: %s (%d bytes > %d limit)", path, info.Size(), maxSize)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUndecodable, "read source file")
	}

	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	for _, name := range encodings {
		decoded, ok := decode(raw, name)
		if ok {
			slog.Debug("read source file", "path", path, "encoding", name, "bytes", len(raw))
			return decoded, nil
		}
	}
	return nil, errors.Newf(errors.CodeUndecodable,
		"cannot decode %s with any of %v", path, encodings)
}

func decode(raw []byte, encoding string) ([]byte, bool) {
	switch strings.ToLower(encoding) {
	case "utf-8", "utf8":
		if utf8.Valid(raw) {
			return raw, true
		}
		return nil, false
	case "cp1251", "windows-1251":
		out, err := charmap.Windows1251.NewDecoder().Bytes(raw)
		if err != nil || strings.ContainsRune(string(out), utf8.RuneError) {
			return nil, false
		}
		return out, true
	case "latin-1", "iso-8859-1":
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}

// HashContent returns a truncated hex SHA-256 of content. Length must be one
// of ValidHashLengths.
func HashContent(content []byte, length int) (string, error) {
	if err := ValidateHashLength(length); err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:length], nil
}

// HashFile returns a truncated hex SHA-256 of a file, reading in chunks.
func HashFile(path string, length int) (string, error) {
	if err := ValidateHashLength(length); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeNotFound, "open file for hashing")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "hash file content")
	}
	return hex.EncodeToString(h.Sum(nil))[:length], nil
}

// ValidateHashLength rejects lengths other than 8, 16, 32, 64.
func ValidateHashLength(length int) error {
	for _, v := range ValidHashLengths {
		if length == v {
			return nil
		}
	}
	return errors.Newf(errors.CodeValidationError,
		"invalid hash length %d, must be one of %v", length, ValidHashLengths)
}

// FileSize returns the size of a file in bytes, 0 if it cannot be read.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// FileModified returns the modification time in UTC RFC 3339, "" on error.
func FileModified(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return info.ModTime().UTC().Format(time.RFC3339)
}

// EnsureDir creates a directory (and parents) if missing.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return errors.Newf(errors.CodeValidationError,
				"path exists but is not a directory: %s", path)
		}
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Wrap(err, errors.CodeOutputError, fmt.Sprintf("create directory %s", path))
	}
	return nil
}

// WriteFileAtomic writes data to path via a temp file in the same directory
// and a rename, so a crash never leaves a partial artifact.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, errors.CodeOutputError, "create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeOutputError, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeOutputError, "close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeOutputError, "rename temp file into place")
	}
	return nil
}
