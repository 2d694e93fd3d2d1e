// Package watch reloads a competition document when it changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when no positive debounce is configured.
const DefaultDebounce = 100 * time.Millisecond

// Logger receives reload outcomes. *slog.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// ReloadFunc is invoked once per settled burst of changes.
type ReloadFunc func(ctx context.Context) error

// Watcher monitors one file. The parent directory is watched so that editors
// replacing the file by rename are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc
	logger   Logger
	fw       *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger routes reload outcomes to logger.
func WithLogger(logger Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets how long the file must stay quiet before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New prepares a watcher for path. Call Run to start it.
func New(path string, reload ReloadFunc, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		reload:   reload,
		logger:   noopLogger{},
		fw:       fw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Run blocks until ctx is cancelled. Reload errors are logged and do not stop
// the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	if err := w.fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()
	var last time.Time
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				last = time.Now()
				pending = true
			}

		case <-ticker.C:
			if !pending || time.Since(last) < w.debounce {
				continue
			}
			pending = false
			if err := w.reload(ctx); err != nil {
				w.logger.Warn("document reload failed", "path", w.path, "error", err)
				continue
			}
			w.logger.Info("document reloaded", "path", w.path)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "path", w.path, "error", err)
		}
	}
}
