package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"blightd/internal/config"
	"blightd/internal/notify"

	"github.com/charmbracelet/log"
)

const (
	appName = "Blight notify"

	// notificationID is fixed so servers that support replacement update the
	// existing notification instead of stacking a new one per burst.
	notificationID = 696969
)

// SendFunc dispatches one desktop notification.
type SendFunc func(notify.Notification) (uint32, error)

// Dispatcher formats settled fractions into desktop notifications.
type Dispatcher struct {
	cfg    config.NotificationConfig
	logger *log.Logger
	send   SendFunc
}

// NewDispatcher creates a dispatcher. A nil send falls back to dialing the
// session bus per notification.
func NewDispatcher(cfg config.NotificationConfig, logger *log.Logger, send SendFunc) *Dispatcher {
	if logger == nil {
		logger = log.Default().WithPrefix("notify")
	}
	if send == nil {
		send = notify.Send
	}
	return &Dispatcher{cfg: cfg, logger: logger, send: send}
}

// Dispatch sends one notification for a settled fraction. Failures are
// logged; the pipeline never stops over a rejected notification.
func (d *Dispatcher) Dispatch(fraction float64) {
	n := notify.Notification{
		AppName:    appName,
		ReplacesID: notificationID,
		Icon:       d.icon(),
		Summary:    d.cfg.Title,
		Body:       FormatBody(d.cfg.Message, fraction),
		Timeout:    int32(d.cfg.TimeoutMs),
		Urgency:    notify.UrgencyLow,
	}
	if _, err := d.send(n); err != nil {
		d.logger.Error("notification dispatch failed", "error", err)
		return
	}
	d.logger.Debug("notification sent", "body", n.Body)
}

// FormatBody renders "<message> <pct>%" with the percentage truncated toward
// zero, so 0.789 displays as 78%.
func FormatBody(message string, fraction float64) string {
	return fmt.Sprintf("%s %d%%", message, int(fraction*100))
}

func (d *Dispatcher) icon() string {
	if d.cfg.Icon != "" {
		return d.cfg.Icon
	}
	// Same auto-icon rule as the notification libraries: the process name
	// doubles as a themed icon name.
	return filepath.Base(os.Args[0])
}
