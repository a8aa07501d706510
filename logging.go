package events

import (
	"os"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// Logger is the diagnostic-only collaborator consumed by the loop and its
// monitor backends; it is never on a hot path. A nil Logger is legal
// anywhere one is accepted and simply disables logging (see noopLogger).
//
// This mirrors the teacher's package-level logger facade (logging.go) in
// spirit — a small interface rather than a concrete type — but swaps the
// implementation for one that actually exercises the logiface/izerolog
// stack declared in go.mod rather than a hand-rolled writer.
type Logger interface {
	Debug(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// noopLogger discards everything; it is the default when no [WithLogger]
// option is supplied.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NewDefaultLogger builds the stack-recommended [Logger]: logiface's
// generic frontend, writing through izerolog onto a zerolog console writer
// on stderr. Suitable as a starting point for applications that want
// structured diagnostics without wiring their own backend.
func NewDefaultLogger() Logger {
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	return NewLogifaceLogger(izerolog.L.New(izerolog.WithZerolog(zl)))
}

// logifaceEvent is the minimal interface of logiface.Event our facade
// relies on, letting NewLogifaceLogger accept any logiface.Logger[E]
// instantiation without the surrounding Loop/options machinery becoming
// generic itself.
type logifaceEvent = logiface.Event

// NewLogifaceLogger wraps an already-configured generic logiface logger
// (any event type) as a [Logger]. Use this to plug in a different logiface
// backend (e.g. a different izerolog writer, or logiface-stumpy) without
// touching the rest of this package.
func NewLogifaceLogger[E logifaceEvent](l *logiface.Logger[E]) Logger {
	return &logifaceLogger[E]{l: l}
}

type logifaceLogger[E logifaceEvent] struct {
	l *logiface.Logger[E]
}

func (x *logifaceLogger[E]) Debug(msg string, kv ...any) {
	logKV(x.l.Debug(), msg, kv)
}

func (x *logifaceLogger[E]) Warn(msg string, kv ...any) {
	logKV(x.l.Warning(), msg, kv)
}

func (x *logifaceLogger[E]) Error(msg string, kv ...any) {
	logKV(x.l.Err(), msg, kv)
}

// logKV applies alternating key/value pairs to a logiface builder, special
// casing an error value under the "error" key, then logs msg. Builder is
// generic over the event type, same as Logger[E].
func logKV[E logifaceEvent](b *logiface.Builder[E], msg string, kv []any) {
	if b == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		switch v := kv[i+1].(type) {
		case error:
			b = b.Err(v)
		case string:
			b = b.Str(key, v)
		case int:
			b = b.Int(key, v)
		default:
			b = b.Any(key, v)
		}
	}
	b.Log(msg)
}
