//go:build !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package events

import (
	"sync"

	"golang.org/x/sys/unix"
)

// pollMonitor is the poll(2)-class [Monitor] backend used on Linux and any
// other POSIX target without kqueue. Grounded on the teacher's
// poller_linux.go (array-backed registration, RWMutex-guarded fdInfo) and on
// original_source's PollMonitor, from which the O(1) self-removal-during-
// dispatch trick (_current_file_descriptor_source / delete-current flag) is
// ported directly — poll(2) forces rebuilding the pollfd slice fresh each
// wait, so that optimization matters more here than it would with epoll.
type pollMonitor struct {
	logger Logger

	mu      sync.Mutex
	sources map[int]FileDescriptorSource

	// currentFD and deleteCurrent implement O(1) self-removal: while
	// dispatching the source for currentFD, RemoveSource on that same fd
	// only sets deleteCurrent instead of mutating the sources map
	// mid-iteration.
	currentFD     int
	dispatching   bool
	deleteCurrent bool
}

func newPlatformMonitor(logger Logger) (Monitor, error) {
	return &pollMonitor{
		logger:  logger,
		sources: make(map[int]FileDescriptorSource),
	}, nil
}

func (m *pollMonitor) AddSource(src FileDescriptorSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[src.FileDescriptor()] = src
	return nil
}

func (m *pollMonitor) RemoveSource(src FileDescriptorSource) error {
	fd := src.FileDescriptor()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dispatching && m.currentFD == fd {
		m.deleteCurrent = true
		return nil
	}
	delete(m.sources, fd)
	return nil
}

func (m *pollMonitor) SourceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

func (m *pollMonitor) Close() error { return nil }

func (m *pollMonitor) WaitForEvents(timeout float64, loop *Loop) (int, error) {
	m.mu.Lock()
	pollfds := make([]unix.PollFd, 0, len(m.sources))
	fds := make([]int, 0, len(m.sources))
	for fd, src := range m.sources {
		pollfds = append(pollfds, unix.PollFd{Fd: int32(fd), Events: maskToPollEvents(src.Mask())})
		fds = append(fds, fd)
	}
	m.mu.Unlock()

	n, err := unix.Poll(pollfds, secondsToPollMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, NewSystemError("poll", err)
	}
	if n == 0 {
		return 0, nil
	}

	dispatched := 0
	for i, pfd := range pollfds {
		if pfd.Revents == 0 {
			continue
		}
		fd := fds[i]

		if pfd.Revents&unix.POLLNVAL != 0 {
			if m.logger != nil {
				m.logger.Error("events: poll reported invalid fd", "fd", fd)
			}
			continue
		}

		m.mu.Lock()
		src, ok := m.sources[fd]
		if !ok {
			m.mu.Unlock()
			continue
		}
		m.currentFD = fd
		m.dispatching = true
		m.deleteCurrent = false
		m.mu.Unlock()

		event := pollEventsToMask(pfd.Revents) & src.Mask()
		if event != 0 {
			dispatched++
			dispErr := safeProcessEvents(src, loop, event)

			m.mu.Lock()
			m.dispatching = false
			remove := m.deleteCurrent
			m.mu.Unlock()

			switch classifyDispatch(dispErr) {
			case dispatchOK:
				if remove {
					m.mu.Lock()
					delete(m.sources, fd)
					m.mu.Unlock()
				}
			case dispatchClosed:
				m.mu.Lock()
				delete(m.sources, fd)
				m.mu.Unlock()
			case dispatchFailed:
				if m.logger != nil {
					m.logger.Error("events: poll source failed, removing", "fd", fd, "error", dispErr)
				}
				m.mu.Lock()
				delete(m.sources, fd)
				m.mu.Unlock()
			}
		} else {
			m.mu.Lock()
			m.dispatching = false
			m.mu.Unlock()
		}
	}
	return dispatched, nil
}

func maskToPollEvents(mask EventMask) int16 {
	var e int16
	if mask&ReadReady != 0 {
		e |= unix.POLLIN
	}
	if mask&WriteReady != 0 {
		e |= unix.POLLOUT
	}
	return e
}

func pollEventsToMask(revents int16) EventMask {
	var m EventMask
	if revents&unix.POLLIN != 0 {
		m |= ReadReady
	}
	if revents&unix.POLLOUT != 0 {
		m |= WriteReady
	}
	return m
}

// secondsToPollMillis converts the three-way WaitForEvents timeout contract
// to poll(2)'s millisecond convention, applying the original implementation's
// +1 rounding fudge so a sub-millisecond positive remainder isn't truncated
// to an immediate return.
func secondsToPollMillis(timeout float64) int {
	if timeout < 0 {
		return -1
	}
	ms := int(timeout * 1000)
	if timeout > 0 && float64(ms) < timeout*1000 {
		ms++
	}
	return ms
}
