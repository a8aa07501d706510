//go:build darwin || dragonfly || freebsd || netbsd || openbsd || linux

package events

import "golang.org/x/sys/unix"

// urgentPipe is the self-pipe used to interrupt a blocking monitor wait
// from another goroutine (§4.7's "Notification pipe" component). Grounded
// on the teacher's wakeup_linux.go/wakeup_darwin.go fd-management (pipe
// creation, non-blocking drain), but unified into one pipe2-based
// implementation across every Unix target, per the spec's explicit naming
// of this component as a self-pipe rather than the teacher's Linux-only
// eventfd optimization (see SPEC_FULL.md §4.7 Go note).
type urgentPipe struct {
	readFD  int
	writeFD int
}

func newUrgentPipe() (*urgentPipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, NewSystemError("pipe2", err)
	}
	return &urgentPipe{readFD: fds[0], writeFD: fds[1]}, nil
}

// FileDescriptor and Mask implement [FileDescriptorSource] indirectly via
// the FDSource wrapper built in NewLoop; this pipe only exposes its raw
// descriptors.

// Wake writes a single byte. Repeated wakes before a Drain leave several
// bytes buffered, and one Drain consumes them all. Safe from any goroutine.
func (p *urgentPipe) Wake() {
	var b [1]byte
	_, _ = unix.Write(p.writeFD, b[:]) // EAGAIN means a wake byte is already pending
}

// Drain empties the read end. Called on the owning goroutine after the
// monitor reports the pipe readable.
func (p *urgentPipe) Drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.readFD, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (p *urgentPipe) Close() error {
	err1 := unix.Close(p.readFD)
	err2 := unix.Close(p.writeFD)
	if err1 != nil {
		return err1
	}
	return err2
}
