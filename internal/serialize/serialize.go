// Package serialize turns artifact documents into bytes on disk. All formats
// carry the same logical structure; the format only changes the wire
// encoding.
package serialize

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"pyndex/internal/core/errors"
	"pyndex/internal/shared/fsutil"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatJSONGz   Format = "json.gz"
	FormatMsgpack  Format = "msgpack"
)

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJSONGz:
		return ".json.gz"
	case FormatMsgpack:
		return ".msgpack"
	default:
		return ".json"
	}
}

// Marshal encodes doc in the given format. Minify drops JSON indentation and
// is a no-op for msgpack, which is already compact.
func Marshal(doc any, format Format, minify bool) ([]byte, error) {
	switch format {
	case FormatJSON:
		return marshalJSON(doc, minify)
	case FormatJSONGz:
		raw, err := marshalJSON(doc, minify)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(raw); err != nil {
			return nil, errors.Wrap(err, errors.CodeOutputError, "gzip artifact")
		}
		if err := gz.Close(); err != nil {
			return nil, errors.Wrap(err, errors.CodeOutputError, "gzip artifact")
		}
		return buf.Bytes(), nil
	case FormatMsgpack:
		raw, err := msgpack.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeOutputError, "msgpack-encode artifact")
		}
		return raw, nil
	default:
		return nil, errors.Newf(errors.CodeValidationError, "unknown output format %q", format)
	}
}

func marshalJSON(doc any, minify bool) ([]byte, error) {
	var raw []byte
	var err error
	if minify {
		raw, err = json.Marshal(doc)
	} else {
		raw, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeOutputError, "json-encode artifact")
	}
	return raw, nil
}

// WriteArtifact serializes doc into dir under name plus the format extension,
// using an atomic temp-and-rename write. Returns the final path.
func WriteArtifact(dir, name string, doc any, format Format, minify bool) (string, error) {
	data, err := Marshal(doc, format, minify)
	if err != nil {
		return "", errors.AddContext(err, errors.CtxArtifact, name)
	}
	path := filepath.Join(dir, name+format.Extension())
	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return "", errors.AddContext(err, errors.CtxArtifact, name)
	}
	return path, nil
}

// ReadJSON loads a JSON or gzip JSON artifact back into out, keyed off the
// file extension. Used by tests and the history store.
func ReadJSON(path string, out any) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "decode artifact")
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNotFound, "read artifact")
	}
	if filepath.Ext(path) != ".gz" {
		return raw, nil
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "open gzip artifact")
	}
	defer gz.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(gz); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decompress artifact")
	}
	return buf.Bytes(), nil
}
