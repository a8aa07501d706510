package events

import "golang.org/x/sys/unix"

// TimerCallback is invoked when a [Timer] fires.
type TimerCallback func(loop *Loop, event EventMask)

// Timer is the concrete [TimerSource] implementation: a callback-bearing,
// optionally repeating, optionally strict timer.
type Timer struct {
	callback TimerCallback
	duration float64
	repeats  bool
	strict   bool
	cancelled bool
}

// NewTimer constructs a timer that fires callback after duration seconds.
// If repeats is true, it reschedules itself after every fire. If strict is
// true, its next fire time always advances by exactly duration from the
// last, even if that time has already passed (no catch-up skipping); if
// false, a late fire clamps forward to the current time to avoid a catch-up
// storm.
func NewTimer(callback TimerCallback, duration float64, repeats, strict bool) *Timer {
	return &Timer{callback: callback, duration: duration, repeats: repeats, strict: strict}
}

// Cancel suppresses all further fires. Safe to call only from the owning
// loop's goroutine, same as any other source mutation.
func (t *Timer) Cancel() { t.cancelled = true }

// Cancelled reports whether Cancel has been called.
func (t *Timer) Cancelled() bool { return t.cancelled }

func (t *Timer) Repeats() bool { return t.repeats && !t.cancelled }

func (t *Timer) NextTimeout(lastTimeout, currentTime float64) float64 {
	if t.strict {
		return lastTimeout + t.duration
	}
	next := lastTimeout + t.duration
	if next < currentTime {
		return currentTime
	}
	return next
}

func (t *Timer) ProcessEvents(loop *Loop, event EventMask) {
	if t.cancelled {
		return
	}
	t.callback(loop, event)
}

// NotificationCallback is invoked when a [Notification] is delivered.
type NotificationCallback func(loop *Loop, event EventMask)

// Notification is the concrete [NotificationSource] implementation.
type Notification struct {
	callback NotificationCallback
}

// NewNotification wraps callback as a postable notification source.
func NewNotification(callback NotificationCallback) *Notification {
	return &Notification{callback: callback}
}

func (n *Notification) ProcessEvents(loop *Loop, event EventMask) {
	n.callback(loop, event)
}

// StopLoopNotification returns a notification whose delivery stops the loop
// it is delivered on.
func StopLoopNotification() *Notification {
	return NewNotification(func(loop *Loop, event EventMask) {
		loop.stopLocal()
	})
}

// FDCallback is invoked when an [FDSource] reports readiness matching its
// mask.
type FDCallback func(loop *Loop, event EventMask)

// FDSource is the concrete [FileDescriptorSource] implementation: a
// pre-opened file descriptor plus a fixed interest mask.
type FDSource struct {
	fd       int
	mask     EventMask
	callback FDCallback
}

// NewFDSource wraps fd, watching for events in mask (ReadReady|WriteReady).
func NewFDSource(fd int, mask EventMask, callback FDCallback) *FDSource {
	return &FDSource{fd: fd, mask: mask & (ReadReady | WriteReady), callback: callback}
}

func (f *FDSource) FileDescriptor() int { return f.fd }
func (f *FDSource) Mask() EventMask     { return f.mask }

func (f *FDSource) ProcessEvents(loop *Loop, event EventMask) {
	f.callback(loop, event&f.mask)
}

// SetNonblock toggles O_NONBLOCK on the wrapped descriptor.
func (f *FDSource) SetNonblock(nonblocking bool) error {
	return unix.SetNonblock(f.fd, nonblocking)
}

// NewStdinSource wraps os.Stdin-style fd 0 as a read-only source.
func NewStdinSource(callback FDCallback) *FDSource {
	return NewFDSource(unix.Stdin, ReadReady, callback)
}

// NewStdoutSource wraps fd 1 as a write-only source.
func NewStdoutSource(callback FDCallback) *FDSource {
	return NewFDSource(unix.Stdout, WriteReady, callback)
}

// NewStderrSource wraps fd 2 as a write-only source.
func NewStderrSource(callback FDCallback) *FDSource {
	return NewFDSource(unix.Stderr, WriteReady, callback)
}

// EventsForFileDescriptor inspects fd's access mode via fcntl(F_GETFL) and
// reports which of ReadReady/WriteReady it can plausibly report, special
// casing the three standard streams. Mirrors the original implementation's
// events_for_file_descriptor helper.
func EventsForFileDescriptor(fd int) (EventMask, error) {
	switch fd {
	case unix.Stdin:
		return ReadReady, nil
	case unix.Stdout, unix.Stderr:
		return WriteReady, nil
	}
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return 0, NewSystemError("fcntl(F_GETFL)", err)
	}
	switch flags & unix.O_ACCMODE {
	case unix.O_RDONLY:
		return ReadReady, nil
	case unix.O_WRONLY:
		return WriteReady, nil
	default: // O_RDWR
		return ReadReady | WriteReady, nil
	}
}
