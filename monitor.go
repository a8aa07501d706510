package events

import "errors"

// Monitor abstracts the OS readiness mechanism used to multiplex
// file-descriptor sources. Two backends implement it: a kqueue-class
// backend for BSD-family kernels and a poll(2)-class backend elsewhere.
//
// wait_for_events semantics (see SPEC_FULL.md §4.4):
//   - timeout < 0: block indefinitely until at least one event.
//   - timeout == 0: poll; return immediately.
//   - timeout > 0: block up to that many seconds; may return earlier.
//
// During WaitForEvents, the monitor invokes ProcessEvents on the
// responsible source for each reported fd/event pair, recovering and
// classifying any panic per the policy in errors.go.
type Monitor interface {
	// AddSource registers src with the monitor.
	AddSource(src FileDescriptorSource) error
	// RemoveSource deregisters src. Safe to call from within a callback
	// currently being dispatched for src itself.
	RemoveSource(src FileDescriptorSource) error
	// SourceCount returns the number of currently registered sources.
	SourceCount() int
	// WaitForEvents blocks per the semantics above and dispatches any
	// reported readiness, returning the number of ProcessEvents calls made.
	WaitForEvents(timeout float64, loop *Loop) (int, error)
	// Close releases any OS resources (the poll/kqueue descriptor).
	Close() error
}

// newMonitor constructs the platform-appropriate [Monitor] backend. Defined
// per-build-tag in monitor_kqueue.go and monitor_poll.go.
func newMonitor(logger Logger) (Monitor, error) {
	return newPlatformMonitor(logger)
}

// dispatchOutcome classifies the result of a recovered ProcessEvents call,
// shared by both monitor backends.
type dispatchOutcome int

const (
	dispatchOK dispatchOutcome = iota
	dispatchClosed
	dispatchFailed
)

func classifyDispatch(err error) dispatchOutcome {
	switch {
	case err == nil:
		return dispatchOK
	case isFileDescriptorClosed(err):
		return dispatchClosed
	default:
		return dispatchFailed
	}
}

func isFileDescriptorClosed(err error) bool {
	return errors.Is(err, ErrFileDescriptorClosed)
}
