package events

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrLoopAlreadyRunning is returned by a driver entry point invoked while
// another driver call is already running on the loop.
var ErrLoopAlreadyRunning = errors.New("events: loop already running")

// ErrWrongGoroutine describes a call to an owning-thread-only method from a
// goroutine other than the one currently driving the loop. No method of this
// package checks for such calls or returns this error.
var ErrWrongGoroutine = errors.New("events: method called from non-owning goroutine")

// ErrFileDescriptorClosed is the sentinel a source's callback should signal
// (by panicking with this error or one wrapping it; the panic is recovered) to
// tell the monitor that the underlying descriptor has gone away. It is
// handled identically to any other per-source failure except that it is not
// logged as an error.
var ErrFileDescriptorClosed = errors.New("events: file descriptor closed")

// SystemError wraps a syscall failure, pairing the errno with the
// operation that produced it.
type SystemError struct {
	Op  string
	Err unix.Errno
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("events: %s: %s", e.Op, e.Err.Error())
}

func (e *SystemError) Unwrap() error { return e.Err }

// NewSystemError builds a [SystemError] from a raw errno return. Returns nil
// if err is nil; an err that is not a [unix.Errno] is wrapped with op as a
// plain error rather than a [SystemError].
func NewSystemError(op string, err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return &SystemError{Op: op, Err: errno}
	}
	return fmt.Errorf("events: %s: %w", op, err)
}

// sourcePanic is recovered by the monitor and the notification/timer
// dispatch loops to classify a callback failure without letting it crash
// the owning goroutine. It mirrors the original implementation's use of a
// thrown exception to signal file-descriptor closure versus any other
// failure.
type sourcePanic struct {
	value any
}

func (p sourcePanic) asError() error {
	if err, ok := p.value.(error); ok {
		return err
	}
	return fmt.Errorf("events: source panic: %v", p.value)
}

// safeProcessEvents invokes src.ProcessEvents, recovering any panic and
// returning it as an error so callers can apply the per-source failure
// policy in §7 of the design (log+deregister, or silently deregister for
// [ErrFileDescriptorClosed]).
func safeProcessEvents(src Source, loop *Loop, event EventMask) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = sourcePanic{value: r}.asError()
		}
	}()
	src.ProcessEvents(loop, event)
	return nil
}
