package imsm

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// builderT is a local alias for the concrete logiface builder type this
// package's Logger is instantiated with, so call sites needn't spell
// out the stumpy event type parameter.
type builderT = logiface.Builder[*stumpy.Event]

// Logger is the logging seam for this package: a thin wrapper over a
// [logiface.Logger] instantiated with the stumpy JSON backend. The zero
// value is a no-op logger — [Init] works fine with no [Logger]
// configured, and no hot-path operation (Get, Put, StageIO, index) ever
// calls into one, per doc.go's logging note. Loggers are only ever
// consulted from Init and from the poll [harness].
type Logger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewLogger builds a Logger writing newline-delimited JSON to w at the
// given level. A nil w defaults to os.Stderr.
func NewLogger(w io.Writer, level logiface.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{
		l: logiface.New[*stumpy.Event](
			logiface.WithLevel[*stumpy.Event](level),
			stumpy.WithStumpy(stumpy.WithWriter(w)),
		),
	}
}

// NewLogifaceLogger wraps an already-constructed logiface logger, for
// callers that want control over the full option set (custom writer,
// field names, modifiers) that [NewLogger] doesn't expose.
func NewLogifaceLogger(l *logiface.Logger[*stumpy.Event]) *Logger {
	return &Logger{l: l}
}

func (lg *Logger) enabled() bool { return lg != nil && lg.l != nil }

// Info returns a builder for an informational-level entry, or nil if no
// logger is configured.
func (lg *Logger) Info() *builderT {
	if !lg.enabled() {
		return nil
	}
	return lg.l.Info()
}

// Warn returns a builder for a warning-level entry, or nil if no logger
// is configured.
func (lg *Logger) Warn() *builderT {
	if !lg.enabled() {
		return nil
	}
	return lg.l.Warning()
}

// Err returns a builder for an error-level entry, or nil if no logger is
// configured.
func (lg *Logger) Err() *builderT {
	if !lg.enabled() {
		return nil
	}
	return lg.l.Err()
}

// logInfo/logWarn are package-internal helpers tolerant of a nil
// *Logger or nil builder (no logger configured), so call sites never
// need a conditional.
func logInfo(lg *Logger, fn func(b *builderT)) {
	if b := lg.Info(); b != nil {
		fn(b)
	}
}

func logWarn(lg *Logger, fn func(b *builderT)) {
	if b := lg.Warn(); b != nil {
		fn(b)
	}
}
