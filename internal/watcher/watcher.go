// Package watcher watches a workspace tree for document changes.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"reqls/internal/slogutil"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

// Event represents a file system event. Path is absolute. Dir marks the
// removal of a watched directory; every file beneath it is gone.
type Event struct {
	Type      EventType
	Path      string
	Dir       bool
	Timestamp time.Time
}

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ChangeHandler is called with each debounced batch
type ChangeHandler func(events []Event)

// Filter reports whether a slash-separated path relative to the root is
// of interest. Directories are always watched.
type Filter func(rel string) bool

// Options contains watcher configuration
type Options struct {
	Debounce time.Duration
	Filter   Filter
	// SkipDir reports whether a directory (by base name) should not be
	// watched. Nil skips hidden directories.
	SkipDir func(name string) bool
}

// Watcher watches a directory tree with fsnotify and delivers debounced
// batches of events for files passing the filter.
type Watcher struct {
	root      string
	opts      Options
	logger    *slog.Logger
	handler   ChangeHandler
	debouncer *BatchDebouncer

	fs     *fsnotify.Watcher
	mu     sync.Mutex
	dirs   map[string]struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a watcher rooted at root. Nothing is watched until Start.
func New(root string, opts Options, logger *slog.Logger, handler ChangeHandler) *Watcher {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	if opts.SkipDir == nil {
		opts.SkipDir = func(name string) bool { return strings.HasPrefix(name, ".") }
	}
	w := &Watcher{
		root:    root,
		opts:    opts,
		logger:  logger,
		handler: handler,
		dirs:    make(map[string]struct{}),
	}
	w.debouncer = NewBatchDebouncer(opts.Debounce, w.deliver)
	return w
}

// Start adds every directory under root and begins delivering events until
// ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fs = fsw

	if err := w.addTree(w.root, false); err != nil {
		_ = fsw.Close()
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Info("Watching workspace",
		"root", w.root,
		"dirs", w.DirCount(),
		"debounce", w.opts.Debounce,
	)
	return nil
}

// Stop stops watching and drops events that have not been delivered yet.
func (w *Watcher) Stop() error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	w.wg.Wait()
	w.debouncer.Cancel()
	w.cancel = nil
	return w.fs.Close()
}

// DirCount returns the number of watched directories
func (w *Watcher) DirCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirs)
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	now := time.Now()

	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err == nil && info.IsDir() {
			// files may land in a new directory before it is watched
			if err := w.addTree(ev.Name, true); err != nil {
				w.logger.Warn("Cannot watch directory", "path", ev.Name, "error", err.Error())
			}
			return
		}
		w.emit(EventCreate, ev.Name, now)
	case ev.Has(fsnotify.Write):
		w.emit(EventModify, ev.Name, now)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if w.forgetDir(ev.Name) {
			w.debouncer.Add(Event{Type: EventDelete, Path: ev.Name, Dir: true, Timestamp: now})
			return
		}
		w.emit(EventDelete, ev.Name, now)
	}
}

func (w *Watcher) emit(t EventType, path string, at time.Time) {
	if !w.accepts(path) {
		return
	}
	w.debouncer.Add(Event{Type: t, Path: path, Timestamp: at})
}

func (w *Watcher) accepts(path string) bool {
	if w.opts.Filter == nil {
		return true
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return w.opts.Filter(filepath.ToSlash(rel))
}

func (w *Watcher) deliver(events []Event) {
	w.logger.Debug("Changes detected", "events", len(events))
	if w.handler != nil {
		w.handler(events)
	}
}

// addTree watches dir and its subdirectories. When announce is set, files
// already present are reported as created.
func (w *Watcher) addTree(dir string, announce bool) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if p != w.root && w.opts.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			if err := w.fs.Add(p); err != nil {
				return err
			}
			w.mu.Lock()
			w.dirs[p] = struct{}{}
			w.mu.Unlock()
			return nil
		}
		if announce {
			w.emit(EventCreate, p, time.Now())
		}
		return nil
	})
}

// forgetDir drops a removed directory and its subdirectories. It returns
// false when path was not a watched directory.
func (w *Watcher) forgetDir(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[path]; !ok {
		return false
	}
	prefix := path + string(filepath.Separator)
	for d := range w.dirs {
		if d == path || strings.HasPrefix(d, prefix) {
			delete(w.dirs, d)
		}
	}
	return true
}
