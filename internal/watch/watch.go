// Package watch rebuilds a sprite sheet whenever its layout or one of its
// source images changes.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ironsheep/sprite-tools-mcp/internal/layout"
	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
)

// DefaultDebounce is how long the watcher waits for a burst of file events to
// settle before rebuilding.
const DefaultDebounce = 200 * time.Millisecond

// BuildFunc rebuilds the sheet. Its errors are logged and watching continues.
type BuildFunc func(ctx context.Context) error

type options struct {
	debounce time.Duration
	logger   *slog.Logger
	onBuild  func(error)
}

// Option configures Run.
type Option func(*options)

// WithDebounce sets the quiet period after the last event before a rebuild.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithLogger sets the logger for build results and watcher errors. The sprite
// package logger is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// OnBuild registers a callback invoked after every build with its result.
func OnBuild(fn func(error)) Option {
	return func(o *options) { o.onBuild = fn }
}

// Run builds once, then watches layoutPath and every source image it lists
// and rebuilds after each burst of changes. When the layout itself changes the
// set of watched images is re-read from it. Events on outPath are ignored so
// the sheet's own writes never trigger a rebuild.
//
// Run returns nil when ctx is cancelled, or an error if the watcher cannot be
// set up.
func Run(ctx context.Context, layoutPath, outPath string, build BuildFunc, opts ...Option) error {
	o := options{debounce: DefaultDebounce, logger: sprite.Logger()}
	for _, opt := range opts {
		opt(&o)
	}

	layoutAbs, err := filepath.Abs(layoutPath)
	if err != nil {
		return err
	}
	var outAbs string
	if outPath != "" {
		if outAbs, err = filepath.Abs(outPath); err != nil {
			return err
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	set := newWatchSet(layoutAbs, outAbs)
	set.load(o.logger)
	if err := set.sync(w); err != nil {
		if !set.watched[filepath.Dir(layoutAbs)] {
			return err
		}
		o.logger.Warn("some image directories are not watched", "error", err)
	}

	runBuild := func() {
		start := time.Now()
		err := build(ctx)
		if err != nil {
			o.logger.Error("rebuild failed", "layout", layoutAbs, "error", err)
		} else {
			o.logger.Info("rebuilt sprite sheet", "layout", layoutAbs, "elapsed", time.Since(start))
		}
		if o.onBuild != nil {
			o.onBuild(err)
		}
	}
	runBuild()

	var fire <-chan time.Time
	reload := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !set.relevant(ev) {
				continue
			}
			o.logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if filepath.Clean(ev.Name) == layoutAbs {
				reload = true
			}
			// Each event restarts the quiet period.
			fire = time.After(o.debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			o.logger.Warn("watcher error", "error", err)

		case <-fire:
			fire = nil
			if reload {
				reload = false
				set.load(o.logger)
				if err := set.sync(w); err != nil {
					o.logger.Warn("failed to update watched directories", "error", err)
				}
			}
			runBuild()
		}
	}
}

// watchSet tracks the files whose changes trigger a rebuild and the
// directories watched to see them. Directories rather than files are watched
// so that editors replacing a file by rename are still noticed.
type watchSet struct {
	layout  string
	out     string
	files   map[string]bool
	dirs    map[string]bool
	watched map[string]bool
}

func newWatchSet(layoutAbs, outAbs string) *watchSet {
	return &watchSet{
		layout:  layoutAbs,
		out:     outAbs,
		files:   map[string]bool{layoutAbs: true},
		dirs:    map[string]bool{filepath.Dir(layoutAbs): true},
		watched: map[string]bool{},
	}
}

// load re-reads the layout. If it cannot be parsed the previous image set is
// kept, so a half-saved layout does not drop every watch.
func (s *watchSet) load(logger *slog.Logger) {
	l, err := layout.Load(s.layout)
	if err != nil {
		logger.Warn("cannot read layout, keeping previous watch set", "layout", s.layout, "error", err)
		return
	}

	files := map[string]bool{s.layout: true}
	dirs := map[string]bool{filepath.Dir(s.layout): true}
	for _, p := range l.Paths() {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	s.files = files
	s.dirs = dirs
}

// sync adds newly needed directories to w and removes ones no longer needed.
// A directory that cannot be watched is reported but does not stop the rest.
func (s *watchSet) sync(w *fsnotify.Watcher) error {
	var firstErr error
	for dir := range s.dirs {
		if s.watched[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.watched[dir] = true
	}
	for dir := range s.watched {
		if !s.dirs[dir] {
			w.Remove(dir)
			delete(s.watched, dir)
		}
	}
	return firstErr
}

// relevant reports whether ev concerns a watched file. Chmod-only events and
// anything touching the output are ignored.
func (s *watchSet) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)
	if name == s.out {
		return false
	}
	return s.files[name]
}
