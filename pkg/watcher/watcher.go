// Package watcher signals when a snapshot source file changes on disk.
//
// The parent directory is watched rather than the file itself: SQLite writes
// land in -wal and -journal siblings, and editors often replace a file by
// renaming a temp file over it. Bursts of events are coalesced into a single
// signal sent once the source has been quiet for the debounce duration.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches one source file.
type Watcher struct {
	path     string
	dir      string
	prefix   string
	debounce time.Duration
	logger   logrus.FieldLogger

	fsw     *fsnotify.Watcher
	changed chan struct{}

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the quiet period before a change is signalled.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher creates a watcher for path. Nothing is watched until Start.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}
	w := &Watcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		prefix:   filepath.Base(abs),
		debounce: DefaultDebounce,
		logger:   logrus.StandardLogger(),
		changed:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Changed delivers one value per coalesced burst of changes. The channel is
// buffered; a signal not yet consumed absorbs later ones.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Start begins watching. Calling Start on a started watcher is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.fsw = fsw
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true
	go w.loop(ctx)
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.cancel()
	w.fsw.Close()
	done := w.done
	w.mu.Unlock()
	<-done
}

// relevant reports whether an event touches the source or one of its
// siblings (nodes.db-wal, nodes.db-journal, .nodes.jsonl.123.tmp).
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(ev.Name)
	return strings.HasPrefix(name, w.prefix) || strings.HasPrefix(name, "."+w.prefix)
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			select {
			case w.changed <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).WithField("path", w.path).Warn("file watch error")
		}
	}
}
