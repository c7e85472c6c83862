// Package daemon implements the backlight notification pipeline: a polling
// watcher turns brightness file changes into normalized fractions, a
// coalescer collapses bursts of rapid changes into one settled value, and a
// dispatcher raises a desktop notification per settled value.
package daemon

import (
	"context"
	"errors"
	"time"

	"blightd/internal/backlight"
	"blightd/internal/config"

	"github.com/charmbracelet/log"
)

// Options configures Run.
type Options struct {
	// ClassDir overrides the sysfs backlight class directory; tests point it
	// at a fixture tree.
	ClassDir string
	Config   config.Config
	Logger   *log.Logger
	// Send overrides notification dispatch; nil uses the session bus.
	Send SendFunc
}

// Run discovers backlight devices and drives the watch pipeline until ctx is
// cancelled. Device discovery and watch setup failures are fatal; everything
// after that point is logged and survived, except the event channel closing
// underneath the coalescer.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	paths, err := backlight.Discover(opts.ClassDir)
	if err != nil {
		return err
	}

	interval := time.Duration(opts.Config.Watch.PollRateSecs * float64(time.Second))
	watcher, err := NewWatcher(paths, interval, logger.WithPrefix("watcher"))
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	go func() {
		for err := range watcher.Errors() {
			logger.Warn("brightness read failed", "error", err)
		}
	}()

	dispatcher := NewDispatcher(opts.Config.Notification, logger.WithPrefix("notify"), opts.Send)
	coalescer := NewCoalescer(watcher.Events())

	if err := coalescer.Run(ctx, dispatcher.Dispatch); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}
