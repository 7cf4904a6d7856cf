// Package watch reloads a catalog directory when its files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pavelanni/chemquiz/internal/catalog"
)

// DefaultDelay is how long the directory must be quiet before a reload.
const DefaultDelay = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Delay is the settle time between the last change and the reload.
	Delay  time.Duration
	Logger *slog.Logger
}

func (o *Options) setDefaults() {
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher watches a catalog directory tree and calls reload once a burst of
// changes has settled.
type Watcher struct {
	root    string
	reload  func() error
	opts    Options
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	trigger chan struct{}
}

// New creates a watcher for root. Every directory below root is watched,
// including ones created later.
func New(root string, reload func() error, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:    filepath.Clean(root),
		reload:  reload,
		opts:    opts,
		watcher: fw,
		trigger: make(chan struct{}, 1),
	}
	if err := w.watchDir(w.root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// watchDir recursively adds directories, skipping hidden ones.
func (w *Watcher) watchDir(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return fmt.Errorf("walk %s: %w", p, err)
			}
			w.opts.Logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && isHidden(p) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		w.opts.Logger.Debug("added watch", "path", p)
		return nil
	})
}

// Run processes file events until ctx is cancelled. It closes the
// underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watch error", "error", err)
		case <-w.trigger:
			if err := w.reload(); err != nil {
				w.opts.Logger.Warn("catalog reload failed, keeping previous catalog", "root", w.root, "error", err)
				continue
			}
			w.opts.Logger.Info("catalog reloaded", "root", w.root)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if isHidden(event.Name) || event.Op == fsnotify.Chmod {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watchDir(event.Name); err != nil {
				w.opts.Logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			w.schedule()
			return
		}
	}

	name := filepath.Base(event.Name)
	removed := event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
	if removed || catalog.IsDataFile(name) || catalog.IsManifestFile(name) {
		w.opts.Logger.Debug("catalog change", "path", event.Name, "op", event.Op.String())
		w.schedule()
	}
}

// schedule restarts the settle timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Delay, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.watcher.Close()
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
