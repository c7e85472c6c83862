package daemon

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"blightd/internal/backlight"

	"github.com/charmbracelet/log"
)

// Watcher polls a set of brightness files and emits normalized fractions.
//
// sysfs attribute writes are not reliably surfaced as inotify events, so the
// watcher re-reads each file at a fixed interval and compares contents. When
// several paths change within one poll tick, only the last one is read
// through (each watched path is an independent device, so the discarded
// changes would produce their own events on later writes).
type Watcher struct {
	paths    []string
	interval time.Duration
	logger   *log.Logger

	// read turns a brightness path into a fraction; swapped in tests.
	read func(string) (float64, error)

	events chan float64
	errors chan error

	contents map[string]string

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewWatcher creates a watcher over the given brightness file paths.
func NewWatcher(paths []string, interval time.Duration, logger *log.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no brightness paths to watch")
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = log.Default().WithPrefix("watcher")
	}

	return &Watcher{
		paths:    paths,
		interval: interval,
		logger:   logger,
		read:     backlight.ReadFraction,
		events:   make(chan float64, 64),
		errors:   make(chan error, 16),
		contents: make(map[string]string),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Events returns the channel of brightness fractions. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan float64 {
	return w.events
}

// Errors returns the channel of per-event recoverable errors. It is closed
// when the watcher stops.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start primes the content cache and launches the poll loop. Priming reads
// every watched path once; a path that cannot be read at this point is a
// startup failure, not a per-event one.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.startOnce.Do(func() {
		for _, path := range w.paths {
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				err = fmt.Errorf("arming watch on %s: %w", path, readErr)
				return
			}
			w.contents[path] = string(data)
			w.logger.Info("watching", "path", path)
		}
		go w.loop(ctx)
	})
	return err
}

// Stop stops the watcher and closes its channels.
func (w *Watcher) Stop() {
	if w == nil {
		return
	}
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.errors)
	defer close(w.events)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

// poll scans every watched path once and emits at most one fraction.
func (w *Watcher) poll() {
	var changed string
	for _, path := range w.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			w.sendError(fmt.Errorf("polling %s: %w", path, err))
			continue
		}
		if content := string(data); content != w.contents[path] {
			w.contents[path] = content
			changed = path
		}
	}
	if changed == "" {
		return
	}

	fraction, err := w.read(changed)
	if err != nil {
		w.sendError(err)
		return
	}

	select {
	case w.events <- fraction:
	case <-w.stopCh:
	}
}

func (w *Watcher) sendError(err error) {
	if err == nil {
		return
	}
	select {
	case w.errors <- err:
	default:
		w.logger.Warn("watcher error dropped", "error", err)
	}
}
