package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *batchRecorder) record(_ context.Context, paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, paths)
}

func (r *batchRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *batchRecorder) lastSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return 0
	}
	return len(r.batches[len(r.batches)-1])
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	rec := &batchRecorder{}

	w, err := New(100*time.Millisecond, 600, nil, nil, rec.record)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx, root) }()
	time.Sleep(50 * time.Millisecond)

	// A burst of writes within the debounce window collapses to one batch.
	for i := 0; i < 3; i++ {
		path := filepath.Join(root, "mod"+string(rune('a'+i))+".py")
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, 3, rec.lastSize())
}

func TestWatcherIgnoresNonPython(t *testing.T) {
	root := t.TempDir()
	rec := &batchRecorder{}

	w, err := New(50*time.Millisecond, 600, nil, nil, rec.record)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx, root) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestWatcherSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "__pycache__"), 0o755))
	rec := &batchRecorder{}

	w, err := New(50*time.Millisecond, 600, []string{"__pycache__"}, nil, rec.record)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx, root) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(
		filepath.Join(root, "__pycache__", "mod.cpython-312.py"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}
