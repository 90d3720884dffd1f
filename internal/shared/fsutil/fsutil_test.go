package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyndex/internal/core/errors"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadSourceUTF8(t *testing.T) {
	path := writeTemp(t, "ok.py", []byte("x = 1\n"))
	content, err := ReadSource(path, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(content))
}

func TestReadSourceCP1251Fallback(t *testing.T) {
	// "привет" in CP1251 is not valid UTF-8.
	cp1251 := []byte{0xEF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}
	path := writeTemp(t, "ru.py", append([]byte("# "), cp1251...))
	content, err := ReadSource(path, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "# привет", string(content))
}

func TestReadSourceLatin1LastResort(t *testing.T) {
	path := writeTemp(t, "bin.py", []byte{0x23, 0x20, 0xFF, 0xFE})
	content, err := ReadSource(path, 0, []string{"utf-8", "latin-1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "# "))
}

func TestReadSourceTooLarge(t *testing.T) {
	path := writeTemp(t, "big.py", make([]byte, 128))
	_, err := ReadSource(path, 64, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFileTooLarge))
}

func TestReadSourceMissing(t *testing.T) {
	_, err := ReadSource(filepath.Join(t.TempDir(), "nope.py"), 0, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestHashContentLengths(t *testing.T) {
	for _, n := range ValidHashLengths {
		h, err := HashContent([]byte("def example(): pass"), n)
		require.NoError(t, err)
		assert.Len(t, h, n)
	}
	_, err := HashContent([]byte("x"), 12)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestHashFileMatchesContent(t *testing.T) {
	data := []byte("print('hello')\n")
	path := writeTemp(t, "h.py", data)
	fromFile, err := HashFile(path, 16)
	require.NoError(t, err)
	fromContent, err := HashContent(data, 16)
	require.NoError(t, err)
	assert.Equal(t, fromContent, fromFile)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, WriteFileAtomic(path, []byte(`{"a":1}`)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	// No temp leftovers.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir)) // idempotent

	file := writeTemp(t, "f", nil)
	err := EnsureDir(file)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}
