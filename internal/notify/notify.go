// Package notify sends desktop notifications over D-Bus using the
// org.freedesktop.Notifications interface.
package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = "/org/freedesktop/Notifications"
	method     = "org.freedesktop.Notifications.Notify"
)

// Urgency is the notification priority level per the freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Timeout sentinels for Notification.Timeout, in milliseconds.
const (
	TimeoutDefault int32 = -1 // let the server decide
	TimeoutNever   int32 = 0  // never expire
)

// Notification is one request to the notification server.
type Notification struct {
	AppName    string
	ReplacesID uint32 // 0 = new notification, >0 = replace existing
	Icon       string // icon name or file path; empty = none
	Summary    string
	Body       string
	Timeout    int32 // ms, or a Timeout* sentinel
	Urgency    Urgency
}

// Server is a connection to the session notification server.
type Server struct {
	conn *dbus.Conn
}

// New connects to the session bus. The connection is held for the lifetime
// of the daemon; Close releases it.
func New() (*Server, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	return &Server{conn: conn}, nil
}

// Close releases the bus connection.
func (s *Server) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Send dials the session bus, dispatches one notification, and closes the
// connection. Suitable for callers that notify rarely and do not want to
// hold a bus connection open between bursts.
func Send(n Notification) (uint32, error) {
	s, err := New()
	if err != nil {
		return 0, err
	}
	defer s.Close()
	return s.Send(n)
}

// Send dispatches a notification and returns the server-assigned ID. When
// ReplacesID is non-zero, a compliant server replaces the existing
// notification instead of stacking a new one.
func (s *Server) Send(n Notification) (uint32, error) {
	if s == nil || s.conn == nil {
		return 0, fmt.Errorf("notification server is not connected")
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(n.Urgency)),
	}

	obj := s.conn.Object(busName, dbus.ObjectPath(objectPath))
	call := obj.Call(method, 0,
		n.AppName,
		n.ReplacesID,
		n.Icon,
		n.Summary,
		n.Body,
		[]string{}, // actions
		hints,
		n.Timeout,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("notify call: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("decoding notification id: %w", err)
	}
	return id, nil
}
