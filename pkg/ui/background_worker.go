// Package ui provides the terminal tree browser for nodetree.
// This file implements the BackgroundWorker for off-thread snapshot loading.
package ui

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/vanderheijden86/nodetree/pkg/analysis"
	"github.com/vanderheijden86/nodetree/pkg/model"
	"github.com/vanderheijden86/nodetree/pkg/watcher"
)

// WorkerState represents the current state of the background worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for source changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is building a new snapshot.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerProcessing:
		return "processing"
	case WorkerStopped:
		return "stopped"
	}
	return fmt.Sprintf("WorkerState(%d)", int(s))
}

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string // "load" or "build"
	Cause   error
	Time    time.Time
	Retries int
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// BackgroundWorker reloads the snapshot source whenever it changes on disk
// and hands finished snapshots to the UI.
type BackgroundWorker struct {
	source        SnapshotSource
	sourcePath    string
	debounceDelay time.Duration
	logger        logrus.FieldLogger

	mu       sync.RWMutex
	state    WorkerState
	dirty    bool // a change came in while processing
	snapshot *DataSnapshot
	started  bool
	lastHash string

	lastError  *WorkerError
	errorCount int

	watcher *watcher.Watcher
	program *tea.Program

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerConfig configures the BackgroundWorker.
type WorkerConfig struct {
	// SourcePath is the file to watch. When Source is nil it is also read
	// as a JSONL/JSON snapshot.
	SourcePath    string
	Source        SnapshotSource
	DebounceDelay time.Duration
	Program       *tea.Program
	Logger        logrus.FieldLogger
}

// NewBackgroundWorker creates a new background worker.
func NewBackgroundWorker(cfg WorkerConfig) (*BackgroundWorker, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = watcher.DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Source == nil && cfg.SourcePath != "" {
		cfg.Source = FileSource(cfg.SourcePath)
	}

	w := &BackgroundWorker{
		source:        cfg.Source,
		sourcePath:    cfg.SourcePath,
		debounceDelay: cfg.DebounceDelay,
		logger:        cfg.Logger,
		program:       cfg.Program,
		state:         WorkerIdle,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	if cfg.SourcePath != "" {
		fw, err := watcher.NewWatcher(cfg.SourcePath,
			watcher.WithDebounceDuration(cfg.DebounceDelay),
			watcher.WithLogger(cfg.Logger),
		)
		if err != nil {
			cancel()
			return nil, err
		}
		w.watcher = fw
	}

	return w, nil
}

// SetProgram attaches the program that receives snapshot messages. The
// program is usually created after the worker, so this is set late.
func (w *BackgroundWorker) SetProgram(p *tea.Program) {
	w.mu.Lock()
	w.program = p
	w.mu.Unlock()
}

// Start begins watching for source changes. It is idempotent.
func (w *BackgroundWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if w.watcher != nil {
		if err := w.watcher.Start(); err != nil {
			return err
		}
		go w.processLoop()
	} else {
		close(w.done)
	}

	return nil
}

// Stop halts the worker. It is idempotent.
func (w *BackgroundWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()

	if w.watcher != nil {
		w.watcher.Stop()
	}

	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
		}
	}
}

// TriggerRefresh reloads the source off the caller's goroutine. A refresh
// requested while one is running is folded into a single rerun.
func (w *BackgroundWorker) TriggerRefresh() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if w.state == WorkerProcessing {
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	go w.process()
}

// GetSnapshot returns the current snapshot (may be nil).
func (w *BackgroundWorker) GetSnapshot() *DataSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

// State returns the current worker state.
func (w *BackgroundWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *BackgroundWorker) processLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.watcher.Changed():
			w.process()
		}
	}
}

func (w *BackgroundWorker) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		if w.state == WorkerProcessing {
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	// nil means deduped or failed
	snapshot := w.buildSnapshot()

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if snapshot != nil {
		w.snapshot = snapshot
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	w.mu.Unlock()

	if snapshot != nil {
		w.send(SnapshotReadyMsg{Snapshot: snapshot})
	}

	if wasDirty {
		go w.process()
	}
}

func (w *BackgroundWorker) send(msg tea.Msg) {
	w.mu.RLock()
	p := w.program
	w.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// safeCompute runs fn, converting a returned error or a panic into a
// WorkerError.
func (w *BackgroundWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

func (w *BackgroundWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

// LastError returns the most recent error (nil if the last run succeeded).
func (w *BackgroundWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

func (w *BackgroundWorker) fail(err *WorkerError) {
	w.logger.WithError(err.Cause).WithField("phase", err.Phase).Warn("snapshot rebuild failed")
	w.recordError(err)
	w.send(SnapshotErrorMsg{Err: err, Recoverable: true})
}

// buildSnapshot runs on the worker goroutine. It returns nil when there is
// no source, loading fails, or the content hash is unchanged.
func (w *BackgroundWorker) buildSnapshot() *DataSnapshot {
	if w.source == nil {
		return nil
	}

	start := time.Now()

	var nodes []model.NodeRecord
	if loadErr := w.safeCompute("load", func() error {
		var err error
		nodes, err = w.source.Snapshot(w.ctx)
		return err
	}); loadErr != nil {
		w.fail(loadErr)
		return nil
	}
	loadDuration := time.Since(start)

	hash := analysis.ComputeDataHash(nodes)

	w.mu.RLock()
	lastHash := w.lastHash
	w.mu.RUnlock()

	if hash == lastHash && lastHash != "" {
		w.logger.WithField("hash", hashPrefix(hash)).Debug("snapshot unchanged, skipping rebuild")
		w.recordError(nil)
		return nil
	}

	var snapshot *DataSnapshot
	buildStart := time.Now()
	if buildErr := w.safeCompute("build", func() error {
		var err error
		snapshot, err = NewDataSnapshot(w.ctx, nodes)
		return err
	}); buildErr != nil {
		w.fail(buildErr)
		return nil
	}

	w.recordError(nil)

	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()

	w.logger.WithFields(logrus.Fields{
		"nodes": len(nodes),
		"load":  loadDuration,
		"build": time.Since(buildStart),
		"hash":  hashPrefix(hash),
	}).Debug("snapshot rebuilt")

	return snapshot
}

// SnapshotReadyMsg is sent to the UI when a new snapshot is ready.
type SnapshotReadyMsg struct {
	Snapshot *DataSnapshot
}

// SnapshotErrorMsg is sent to the UI when snapshot building fails.
type SnapshotErrorMsg struct {
	Err         error
	Recoverable bool // expected to recover on the next source change
}

// WatcherChanged returns the watcher's change channel, or nil without one.
func (w *BackgroundWorker) WatcherChanged() <-chan struct{} {
	if w.watcher == nil {
		return nil
	}
	return w.watcher.Changed()
}

// LastHash returns the content hash of the last successful build.
func (w *BackgroundWorker) LastHash() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHash
}

// hashPrefix returns up to 16 characters of hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}

// ResetHash forces the next build to run even if content is unchanged.
func (w *BackgroundWorker) ResetHash() {
	w.mu.Lock()
	w.lastHash = ""
	w.mu.Unlock()
}
