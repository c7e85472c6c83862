// Package testutil provides shared test helpers.
package testutil

import (
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"
)

// TestLogger returns the structured logger the daemon components take, wired
// for tests: debug level, the test name as the subsystem prefix, and output
// discarded unless `go test -v` is used.
func TestLogger(t *testing.T) *log.Logger {
	t.Helper()

	logger := log.NewWithOptions(testWriter(), log.Options{
		Level:  log.DebugLevel,
		Prefix: "blightd/" + t.Name(),
	})
	return logger
}

func testWriter() io.Writer {
	if testing.Verbose() {
		return os.Stderr
	}
	return io.Discard
}
