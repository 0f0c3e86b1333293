// Package watch re-runs a job when its input file changes or on a fixed schedule.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron"
	"github.com/rs/zerolog"
)

// RunFunc performs one full run. reason says what triggered it.
type RunFunc func(ctx context.Context, reason string) error

// Options configure a Watcher. A zero Every disables the schedule; an empty Path
// disables file watching.
type Options struct {
	Path     string
	Every    time.Duration
	Debounce time.Duration
	Logger   zerolog.Logger
}

// Watcher serializes runs: one at a time, and triggers that arrive during a run
// collapse into a single follow-up run.
type Watcher struct {
	opt      Options
	run      RunFunc
	mu       sync.Mutex
	triggers chan string
}

func New(opt Options, run RunFunc) *Watcher {
	if opt.Debounce <= 0 {
		opt.Debounce = 500 * time.Millisecond
	}
	return &Watcher{opt: opt, run: run, triggers: make(chan string, 1)}
}

// Trigger requests a run without blocking.
func (w *Watcher) Trigger(reason string) {
	select {
	case w.triggers <- reason:
	default:
	}
}

// RunNow runs immediately, waiting for any run in progress.
func (w *Watcher) RunNow(ctx context.Context, reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	start := time.Now()
	err := w.run(ctx, reason)
	ev := w.opt.Logger.Info()
	if err != nil {
		ev = w.opt.Logger.Error().Err(err)
	}
	ev.Str("reason", reason).Dur("took", time.Since(start)).Msg("watch run finished")
	return err
}

// Start runs once, then on every trigger until ctx is done. Run errors are logged
// and do not stop the watcher.
func (w *Watcher) Start(ctx context.Context) error {
	if w.opt.Path != "" {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create file watcher: %w", err)
		}
		defer fw.Close()
		// watch the directory so editors that replace the file are still seen
		if err := fw.Add(filepath.Dir(w.opt.Path)); err != nil {
			return fmt.Errorf("watch %s: %w", w.opt.Path, err)
		}
		go w.watchFile(ctx, fw)
	}
	if w.opt.Every > 0 {
		c := cron.New()
		if err := c.AddFunc("@every "+w.opt.Every.String(), func() { w.Trigger("schedule") }); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
		c.Start()
		defer c.Stop()
	}

	w.Trigger("startup")
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-w.triggers:
			_ = w.RunNow(ctx, reason)
		}
	}
}

func (w *Watcher) watchFile(ctx context.Context, fw *fsnotify.Watcher) {
	target := filepath.Clean(w.opt.Path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(w.opt.Debounce, func() { w.Trigger("file change") })
			} else {
				timer.Reset(w.opt.Debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.opt.Logger.Warn().Err(err).Msg("file watcher error")
		}
	}
}
