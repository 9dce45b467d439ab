package splatview

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while a frame is being drawn.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for splatview and all its sub-packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used by splatview:
//   - [slog.LevelDebug]: per-frame diagnostics (backend selection, tile counts, batches)
//   - [slog.LevelInfo]: lifecycle events (presenter chosen, shader compiled)
//   - [slog.LevelWarn]: non-fatal issues (presentation fallback, frame setup failure)
//
// Example:
//
//	splatview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages (backend/, surface/,
// control/) call this to share one logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
