// Package watch rebuilds a site while its sources change.
//
// File system events from the content directories are filtered and queued
// on a buffered channel. A single dispatcher drains the queue and runs one
// rebuild task per event in arrival order: documents go through
// BuildFile, other files are copied again. Events are neither merged nor
// cancelled. An optional schedule queues periodic full rebuilds on the same
// channel so future-dated documents appear when due.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/pipeline"
)

// QueueSize is the capacity of the event queue.
const QueueSize = 256

// Op is the kind of a queued event.
type Op int

const (
	// Changed covers created, written and renamed-to files.
	Changed Op = iota
	// Removed covers deleted and renamed-away files.
	Removed
	// Rebuild asks for a full batch build.
	Rebuild
)

func (o Op) String() string {
	switch o {
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	case Rebuild:
		return "rebuild"
	default:
		return "unknown"
	}
}

// Event is one queued rebuild task.
type Event struct {
	Op   Op
	Path string
}

// Builder runs builds. *pipeline.Orchestrator implements it.
type Builder interface {
	Build(ctx context.Context) (*pipeline.Result, error)
	BuildFile(ctx context.Context, path string) (*pipeline.Result, error)
}

// Watcher turns file system events into rebuild tasks.
type Watcher struct {
	dirs      []string
	outputDir string
	ignore    []string
	schedule  time.Duration
	builder   Builder

	events chan Event
	// done receives every finished task; used by tests.
	done func(Event, *pipeline.Result, error)
}

// New prepares a watcher for the content directories of cfg.
func New(cfg *config.Config, builder Builder) (*Watcher, error) {
	out, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	w := &Watcher{
		dirs:      cfg.ContentDirs(),
		outputDir: out,
		ignore:    cfg.Watch.Ignore,
		builder:   builder,
		events:    make(chan Event, QueueSize),
	}
	if cfg.Watch.Schedule != "" {
		if w.schedule, err = time.ParseDuration(cfg.Watch.Schedule); err != nil {
			return nil, fmt.Errorf("watch schedule: %w", err)
		}
	}
	return w, nil
}

// Enqueue queues an event, blocking while the queue is full.
func (w *Watcher) Enqueue(ctx context.Context, ev Event) error {
	select {
	case w.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	for _, dir := range w.dirs {
		if _, err := os.Stat(dir); err != nil {
			slog.Debug("Not watching missing directory", logfields.Path(dir))
			continue
		}
		w.addDirsRecursive(fsw, dir)
	}

	if w.schedule > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return err
		}
		_, err = sched.ScheduleEvery("scheduled-rebuild", w.schedule, func() {
			if err := w.Enqueue(ctx, Event{Op: Rebuild}); err != nil {
				slog.Debug("Scheduled rebuild dropped", logfields.Error(err))
			}
		})
		if err != nil {
			return err
		}
		sched.Start()
		defer func() { _ = sched.Stop(ctx) }()
	}

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		w.dispatch(ctx)
	}()

	slog.Info("Watching for changes", slog.Any("dirs", w.dirs))
	for {
		select {
		case <-ctx.Done():
			<-dispatched
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// handle filters one fsnotify event and queues it.
func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || w.Ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fsw, ev.Name)
			return
		}
	}

	op := Changed
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		op = Removed
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Event(ev.Op.String()))
	if err := w.Enqueue(ctx, Event{Op: op, Path: ev.Name}); err != nil {
		slog.Debug("Event dropped", logfields.Path(ev.Name), logfields.Error(err))
	}
}

// dispatch runs queued events one at a time until ctx is cancelled.
func (w *Watcher) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.events:
			res, err := w.process(ctx, ev)
			if w.done != nil {
				w.done(ev, res, err)
			}
		}
	}
}

func (w *Watcher) process(ctx context.Context, ev Event) (*pipeline.Result, error) {
	start := time.Now()
	var (
		res *pipeline.Result
		err error
	)
	if ev.Op == Rebuild {
		slog.Info("Scheduled rebuild")
		res, err = w.builder.Build(ctx)
	} else {
		res, err = w.builder.BuildFile(ctx, ev.Path)
	}
	if err != nil {
		slog.Warn("Rebuild failed",
			logfields.Event(ev.Op.String()),
			logfields.Path(ev.Path),
			logfields.Error(err))
		return res, err
	}
	slog.Info("Rebuilt",
		logfields.Event(ev.Op.String()),
		logfields.Path(ev.Path),
		logfields.Since(start))
	return res, nil
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.Ignored(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// Ignored reports whether events for path are dropped: paths below the
// output directory, hidden paths, editor temp files and paths matching a
// watch.ignore glob relative to their content directory.
func (w *Watcher) Ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	if abs == w.outputDir || strings.HasPrefix(abs, w.outputDir+string(filepath.Separator)) {
		return true
	}
	if tempFile(filepath.Base(path)) {
		return true
	}

	for _, dir := range w.dirs {
		root, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(rel)
		if pipeline.Hidden(rel) {
			return true
		}
		for _, pattern := range w.ignore {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return true
			}
		}
		return false
	}
	return false
}

// tempFile matches editor swap, backup and lock files.
func tempFile(base string) bool {
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"),
		base == "4913",
		base == "Thumbs.db":
		return true
	}
	return false
}
