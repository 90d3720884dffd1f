// Package watch re-runs the indexing pipeline when Python sources change.
// Events are debounced into batches and re-index runs are rate limited.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"pyndex/internal/core/errors"
)

type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	debounce    time.Duration
	limiter     *rate.Limiter
	excludeDirs map[string]bool
	onChange    func(context.Context, []string)
	logger      *slog.Logger

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer
}

// New creates a watcher over Python sources. maxPerMin caps how many
// re-index runs the debounced change stream may trigger per minute; bursts
// beyond the cap are coalesced into the next allowed run.
func New(debounce time.Duration, maxPerMin int, excludeDirs []string,
	logger *slog.Logger, onChange func(context.Context, []string),
) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create file watcher")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxPerMin <= 0 {
		maxPerMin = 12
	}

	w := &Watcher{
		fsWatcher:   fsw,
		debounce:    debounce,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxPerMin)), 1),
		excludeDirs: make(map[string]bool, len(excludeDirs)),
		onChange:    onChange,
		logger:      logger,
		pending:     make(map[string]struct{}),
	}
	for _, dir := range excludeDirs {
		w.excludeDirs[dir] = true
	}
	return w, nil
}

// Watch registers the project tree and processes events until ctx is done.
func (w *Watcher) Watch(ctx context.Context, root string) error {
	if err := w.addRecursive(root); err != nil {
		return err
	}
	w.logger.Info("watching for changes", "root", root, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.excludeDirs[filepath.Base(event.Name)] {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
				}
			}
			return
		}
	}

	if !w.relevant(event.Name) {
		return
	}
	if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Remove) {
		w.schedule(ctx, event.Name)
	}
}

func (w *Watcher) relevant(path string) bool {
	return strings.HasSuffix(path, ".py")
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.flush(ctx) })
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 || ctx.Err() != nil {
		return
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return
	}
	w.onChange(ctx, paths)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.excludeDirs[d.Name()] {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
