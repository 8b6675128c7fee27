// Package watch re-runs a conversion whenever its input file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cdr.dev/slog"
	"github.com/fsnotify/fsnotify"

	"github.com/alnah/go-convert-md/internal/log"
)

// Default timings.
const (
	DefaultDebounce     = 16 * time.Millisecond
	DefaultPollInterval = 10 * time.Second
)

// ErrWatcherClosed is returned when fsnotify closes its channels.
var ErrWatcherClosed = errors.New("file watcher closed")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the watcher waits after the last event of a
// burst before triggering.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithPollInterval sets how often the modification time is checked in case
// an event was missed.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.poll = d
		}
	}
}

// Watcher watches a single file.
type Watcher struct {
	path     string
	fw       *fsnotify.Watcher
	debounce time.Duration
	poll     time.Duration
	trigger  chan struct{}
}

// New creates a Watcher for path. The file does not have to exist yet.
func New(path string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{
		path:     path,
		fw:       fw,
		debounce: DefaultDebounce,
		poll:     DefaultPollInterval,
		trigger:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

// Run calls fn once, then again after every burst of changes to the file,
// until ctx is done. Errors from fn are logged and do not stop the loop.
// Run returns ctx.Err() on cancellation, after the watch goroutine exits.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- w.watchLoop(ctx)
	}()

	for {
		select {
		case <-w.trigger:
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				log.Error(ctx, "conversion failed", slog.F("path", w.path), slog.Error(err))
			}
		case err := <-errc:
			return err
		case <-ctx.Done():
			<-errc
			return ctx.Err()
		}
	}
}

func (w *Watcher) watchLoop(ctx context.Context) error {
	lastModified, err := w.ensureAddWatch(ctx)
	if err != nil {
		return err
	}
	w.requestRun()

	burst := time.NewTimer(0)
	<-burst.C
	pollTicker := time.NewTicker(w.poll)
	defer pollTicker.Stop()

	pending := false
	for {
		select {
		case <-pollTicker.C:
			// Events can be lost when editors replace the file.
			mt, err := w.ensureAddWatch(ctx)
			if err != nil {
				return err
			}
			if !mt.Equal(lastModified) {
				lastModified = mt
				log.Debug(ctx, "missed change detected by poll", slog.F("path", w.path))
				w.requestRun()
			}
		case ev, ok := <-w.fw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			log.Debug(ctx, "file system event", slog.F("event", ev.String()))
			mt, err := w.ensureAddWatch(ctx)
			if err != nil {
				return err
			}
			if ev.Op == fsnotify.Chmod && mt.Equal(lastModified) {
				continue
			}
			lastModified = mt
			pending = true
			burst.Reset(w.debounce)
		case <-burst.C:
			if !pending {
				continue
			}
			pending = false
			log.Info(ctx, "change detected, converting", slog.F("path", w.path))
			w.requestRun()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			log.Warn(ctx, "file watcher error", slog.Error(err))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// requestRun queues at most one pending run.
func (w *Watcher) requestRun() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// ensureAddWatch (re)adds the watch, backing off while the file is missing,
// and returns its modification time.
func (w *Watcher) ensureAddWatch(ctx context.Context) (time.Time, error) {
	interval := 16 * time.Millisecond
	tc := time.NewTimer(0)
	<-tc.C
	for {
		mt, err := w.addWatch()
		if err == nil {
			return mt, nil
		}
		if interval >= time.Second {
			log.Warn(ctx, "failed to watch file, retrying",
				slog.F("path", w.path), slog.F("retry_in", interval), slog.Error(err))
		}

		tc.Reset(interval)
		select {
		case <-tc.C:
			if interval < time.Second {
				interval = time.Second
			}
			if interval < 16*time.Second {
				interval *= 2
			}
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		}
	}
}

func (w *Watcher) addWatch() (time.Time, error) {
	if err := w.fw.Add(w.path); err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
