// Package obslog provides the leveled per-call trace logging used by every
// backend package in this service: object store calls, catalog queries,
// and RPC method entry/exit. It generalizes the teacher's apilog package
// (a single Verbose bool gating fmt.Fprintf to stderr) into a small leveled
// wrapper over log/slog, keeping the same call-site idiom:
//
//	obslog.Tracef("[GCS] Objects.List(bucket=%s, prefix=%q)", bucket, prefix)
package obslog

import (
	"fmt"
	"log/slog"
	"os"
)

// Verbose controls whether Tracef lines are emitted. Mirrors apilog.Verbose.
var Verbose bool

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{}))

// SetLogger overrides the underlying slog.Logger, primarily for tests.
func SetLogger(l *slog.Logger) {
	logger = l
}

// Tracef writes a single call-trace line at info level when Verbose is
// set, so Verbose alone decides whether the line appears.
func Tracef(format string, args ...any) {
	if Verbose {
		logger.Info(sprintf(format, args...))
	}
}

// Infof writes a single informational line unconditionally.
func Infof(format string, args ...any) {
	logger.Info(sprintf(format, args...))
}

// Warnf writes a single warning line unconditionally.
func Warnf(format string, args ...any) {
	logger.Warn(sprintf(format, args...))
}

// Errorf writes a single error line unconditionally, typically paired with
// a sanitized message returned to the caller.
func Errorf(format string, args ...any) {
	logger.Error(sprintf(format, args...))
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
