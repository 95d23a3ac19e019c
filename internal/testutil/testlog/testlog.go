// Package testlog routes slog output into the test log.
package testlog

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/lguibr/switchboard/internal/logging"
)

type writer struct {
	t testing.TB
}

func (w writer) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// New returns a debug-level logger that writes through t.Log.
func New(t testing.TB) *slog.Logger {
	t.Helper()
	return logging.NewWithWriter(writer{t: t}, logging.Options{Level: logging.LevelDebug})
}
