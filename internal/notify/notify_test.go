package notify

import (
	"os"
	"testing"
)

func TestSendNotConnected(t *testing.T) {
	var s *Server
	if _, err := s.Send(Notification{Summary: "x"}); err == nil {
		t.Fatalf("expected error from nil server")
	}

	s = &Server{}
	if _, err := s.Send(Notification{Summary: "x"}); err == nil {
		t.Fatalf("expected error from disconnected server")
	}
}

func TestCloseNil(t *testing.T) {
	var s *Server
	if err := s.Close(); err != nil {
		t.Fatalf("Close on nil server: %v", err)
	}
}

func TestNewRequiresSessionBus(t *testing.T) {
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no session bus available")
	}
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
