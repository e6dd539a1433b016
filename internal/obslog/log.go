// Package obslog wires up structured logging for genesisd.
//
// The teacher (main/gen_gdl90.go) duplicates log.* output to a file
// with io.MultiWriter(fp, os.Stdout) and never revisits logging again.
// Genesis's fork discipline (spec.md §4.C, §5) needs more than that:
// every fork must flush all logging sinks and suppress further
// logging until the parent/child notification fires, which requires a
// logger with an explicit Sync and a level that can be gated at
// runtime. go.uber.org/zap (LeoCommon-client's logger of choice in the
// pack) provides both, so the teacher's multi-writer sink is kept but
// wrapped in a zap core instead of the bare log package.
package obslog

import (
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a *zap.Logger with the suppress-around-fork behavior
// spec.md §4.C and §5 require.
type Logger struct {
	base      *zap.Logger
	suppressed atomic.Bool
}

// New builds a Logger that writes to both logFile and stdout, at
// level "info" normally, "debug" if verbose, or "debug" with caller
// info if veryVerbose.
func New(logFile *os.File, verbose, veryVerbose bool) *Logger {
	level := zapcore.InfoLevel
	if verbose || veryVerbose {
		level = zapcore.DebugLevel
	}

	var writers []zapcore.WriteSyncer
	writers = append(writers, zapcore.AddSync(os.Stdout))
	if logFile != nil {
		writers = append(writers, zapcore.AddSync(logFile))
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.NewMultiWriteSyncer(writers...), level)

	opts := []zap.Option{}
	if veryVerbose {
		opts = append(opts, zap.AddCaller())
	}
	return &Logger{base: zap.New(core, opts...)}
}

// L returns the underlying *zap.Logger, or a discarding no-op logger
// while suppressed (fork window).
func (l *Logger) L() *zap.Logger {
	if l.suppressed.Load() {
		return zap.NewNop()
	}
	return l.base
}

// PrepareFork flushes all sinks and suppresses further logging, per
// spec.md §4.C's fork discipline: "Flush all logging sinks and
// suppress further logging" must happen before every fork.
func (l *Logger) PrepareFork() {
	_ = l.base.Sync()
	l.suppressed.Store(true)
}

// ResumeAfterFork re-enables logging in the parent after a fork
// completes (spec.md §4.C: "re-enable logging" on the parent side).
func (l *Logger) ResumeAfterFork() {
	l.suppressed.Store(false)
}

// Sync flushes all sinks.
func (l *Logger) Sync() error {
	return l.base.Sync()
}

// OpenLogFile opens path for append, creating it if necessary,
// matching the teacher's os.OpenFile(debugLog, O_CREATE|O_WRONLY|O_APPEND, 0666).
func OpenLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
}
