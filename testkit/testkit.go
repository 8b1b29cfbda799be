// Package testkit holds small helpers shared by tests across the module.
package testkit

import (
	"log/slog"
	"os"
	"testing"
)

// tbWriter routes log output through testing.TB so it interleaves with test
// output and stays hidden on success unless -v is set.
type tbWriter struct{ tb testing.TB }

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(string(p))
	return len(p), nil
}

// NewLogger returns a debug-level JSON slog.Logger writing to t.Log.
func NewLogger(tb testing.TB) *slog.Logger {
	tb.Helper()
	return slog.New(slog.NewJSONHandler(tbWriter{tb: tb}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// SetEnv sets environment variables for the duration of the test and
// restores a clean slate afterwards. Pair with config.MustLoad.
func SetEnv(tb testing.TB, envs map[string]string) {
	tb.Helper()
	for k, v := range envs {
		os.Setenv(k, v)
	}
	tb.Cleanup(func() {
		for k := range envs {
			os.Unsetenv(k)
		}
	})
}
