package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"captionsync/internal/fileutil"
	"captionsync/internal/logging"
)

const watchLockName = ".captionsync.lock"

// transcriptWatcher runs process once per new or changed transcript in dir.
// fsnotify delivers events; a polling scan covers missed events and
// filesystems without inotify support. A path is processed only after its
// content has been stable for settle, and never by two jobs at once.
type transcriptWatcher struct {
	dir         string
	pattern     string
	concurrency int
	poll        time.Duration
	settle      time.Duration
	process     func(ctx context.Context, path string) error
	logger      *slog.Logger

	// pending and ready belong to the Run loop.
	pending map[string]*pendingFile
	ready   chan string

	mu      sync.Mutex
	seen    map[string]string
	running map[string]bool
	again   map[string]bool
}

// pendingFile is a path waiting for its content to settle.
type pendingFile struct {
	key   string
	timer *time.Timer
}

func (w *transcriptWatcher) matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ok, err := filepath.Match(w.pattern, base)
	return err == nil && ok
}

// Run blocks until ctx is canceled. Only one watcher may hold a directory.
func (w *transcriptWatcher) Run(ctx context.Context) error {
	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	lock := flock.New(filepath.Join(w.dir, watchLockName))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire watch lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another captionsync watcher is already running on %s", w.dir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			w.logger.Warn("failed to release watch lock", logging.Error(err))
		}
	}()

	w.pending = make(map[string]*pendingFile)
	w.ready = make(chan string)
	w.mu.Lock()
	w.seen = make(map[string]string)
	w.running = make(map[string]bool)
	w.again = make(map[string]bool)
	w.mu.Unlock()

	events, errs, closeWatcher := w.subscribe()
	defer closeWatcher()

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, w.concurrency))

	w.logger.Info("watching for transcripts",
		logging.String("dir", w.dir),
		logging.String("pattern", w.pattern),
		logging.Int("concurrency", w.concurrency),
	)
	w.scan(ctx)

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			for _, p := range w.pending {
				p.timer.Stop()
			}
			_ = group.Wait()
			return nil
		case path := <-w.ready:
			w.dispatch(ctx, gctx, group, path)
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				w.debounce(ctx, event.Name)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.WarnWithContext(w.logger, "file watcher error", "watch_error",
				logging.String(logging.FieldImpact, "polling continues"),
				logging.Error(err),
			)
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

// debounce (re)starts the settle timer of path whenever its content changed
// since the timer was armed. Unchanged content leaves the timer alone.
func (w *transcriptWatcher) debounce(ctx context.Context, path string) {
	if !w.matches(path) {
		return
	}
	key, err := fileutil.StatKey(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	done := w.seen[path] == key
	w.mu.Unlock()
	if done {
		return
	}
	if p, ok := w.pending[path]; ok {
		if p.key == key {
			return
		}
		p.key = key
		// A timer that already fired is on its way to ready; dispatch
		// re-reads the file then.
		if p.timer.Stop() {
			p.timer.Reset(w.settle)
		}
		return
	}
	w.pending[path] = &pendingFile{
		key:   key,
		timer: time.AfterFunc(w.settle, func() { w.requeue(ctx, path) }),
	}
}

func (w *transcriptWatcher) requeue(ctx context.Context, path string) {
	select {
	case w.ready <- path:
	case <-ctx.Done():
	}
}

// dispatch hands a settled path to the worker group. A path already being
// processed is marked and requeued once the running job finishes.
func (w *transcriptWatcher) dispatch(ctx, gctx context.Context, group *errgroup.Group, path string) {
	delete(w.pending, path)
	key, err := fileutil.StatKey(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	if w.running[path] {
		w.again[path] = true
		w.mu.Unlock()
		return
	}
	if w.seen[path] == key {
		w.mu.Unlock()
		return
	}
	w.seen[path] = key
	w.running[path] = true
	w.mu.Unlock()

	group.Go(func() error {
		if err := w.process(gctx, path); err != nil && !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(w.logger, "transcript processing failed", "watch_job_failed",
				logging.String("path", path),
				logging.String(logging.FieldImpact, "file is retried when it changes"),
				logging.Error(err),
			)
		}
		w.mu.Lock()
		delete(w.running, path)
		rerun := w.again[path]
		delete(w.again, path)
		w.mu.Unlock()
		if rerun {
			go w.requeue(ctx, path)
		}
		return nil
	})
}

// subscribe returns nil channels when fsnotify is unavailable; polling
// then carries the load alone.
func (w *transcriptWatcher) subscribe() (<-chan fsnotify.Event, <-chan error, func()) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("fsnotify unavailable; polling only", logging.Error(err))
		return nil, nil, func() {}
	}
	if err := fsw.Add(w.dir); err != nil {
		w.logger.Warn("cannot watch directory; polling only", logging.String("dir", w.dir), logging.Error(err))
		_ = fsw.Close()
		return nil, nil, func() {}
	}
	return fsw.Events, fsw.Errors, func() { _ = fsw.Close() }
}

func (w *transcriptWatcher) scan(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("watch directory unreadable", logging.String("dir", w.dir), logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.debounce(ctx, filepath.Join(w.dir, entry.Name()))
	}
}
