package events

import "testing"

func TestNoopLoggerDiscardsEverything(t *testing.T) {
	var l Logger = noopLogger{}
	// Must not panic regardless of argument shapes.
	l.Debug("debug", "k", "v")
	l.Warn("warn", "k", 1)
	l.Error("error", "k", errTestSentinel)
}

type sentinelErr struct{ msg string }

func (e *sentinelErr) Error() string { return e.msg }

var errTestSentinel = &sentinelErr{msg: "sentinel"}

func TestNewDefaultLoggerDoesNotPanic(t *testing.T) {
	l := NewDefaultLogger()
	l.Debug("hello", "count", 1, "ok", true, "err", errTestSentinel)
	l.Warn("world")
	l.Error("boom")
}
