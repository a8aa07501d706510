//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package events

import (
	"sync"

	"golang.org/x/sys/unix"
)

// kqueueBatchSize bounds how many events a single WaitForEvents call
// reaps, mirroring the original KQUEUE_SIZE batch constant.
const kqueueBatchSize = 32

// kqueueMonitor is the kqueue-class [Monitor] backend for BSD-family
// kernels, grounded on the teacher's poller_darwin.go FastPoller and on
// original_source's KQueueMonitor (the removed-this-wait suppression set in
// particular has no analogue in the teacher and is ported directly from the
// original).
type kqueueMonitor struct {
	kq      int
	logger  Logger
	mu      sync.Mutex
	sources map[int]FileDescriptorSource
	removed map[int]struct{}
	eventBuf [kqueueBatchSize]unix.Kevent_t
}

func newPlatformMonitor(logger Logger) (Monitor, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, NewSystemError("kqueue", err)
	}
	unix.CloseOnExec(kq)
	return &kqueueMonitor{
		kq:      kq,
		logger:  logger,
		sources: make(map[int]FileDescriptorSource),
		removed: make(map[int]struct{}),
	}, nil
}

func (m *kqueueMonitor) AddSource(src FileDescriptorSource) error {
	fd := src.FileDescriptor()
	m.mu.Lock()
	m.sources[fd] = src
	delete(m.removed, fd)
	m.mu.Unlock()

	kevents := maskToKevents(fd, src.Mask(), unix.EV_ADD|unix.EV_ENABLE)
	if len(kevents) == 0 {
		return nil
	}
	if _, err := unix.Kevent(m.kq, kevents, nil, nil); err != nil {
		m.mu.Lock()
		delete(m.sources, fd)
		m.mu.Unlock()
		return NewSystemError("kevent(add)", err)
	}
	return nil
}

func (m *kqueueMonitor) RemoveSource(src FileDescriptorSource) error {
	fd := src.FileDescriptor()
	m.mu.Lock()
	if _, ok := m.sources[fd]; !ok {
		m.mu.Unlock()
		return nil
	}
	mask := src.Mask()
	delete(m.sources, fd)
	m.removed[fd] = struct{}{}
	m.mu.Unlock()

	kevents := maskToKevents(fd, mask, unix.EV_DELETE)
	if len(kevents) > 0 {
		// Best-effort; the fd may already be closed.
		_, _ = unix.Kevent(m.kq, kevents, nil, nil)
	}
	return nil
}

func (m *kqueueMonitor) SourceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

func (m *kqueueMonitor) Close() error {
	return unix.Close(m.kq)
}

func (m *kqueueMonitor) WaitForEvents(timeout float64, loop *Loop) (int, error) {
	m.mu.Lock()
	clear(m.removed)
	m.mu.Unlock()

	ts, hasTimeout := secondsToTimespec(timeout)
	var tsp *unix.Timespec
	if hasTimeout {
		tsp = &ts
	}

	n, err := unix.Kevent(m.kq, nil, m.eventBuf[:], tsp)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, NewSystemError("kevent(wait)", err)
	}

	dispatched := 0
	for i := 0; i < n; i++ {
		kev := &m.eventBuf[i]
		fd := int(kev.Ident)

		m.mu.Lock()
		if _, wasRemoved := m.removed[fd]; wasRemoved {
			m.mu.Unlock()
			continue
		}
		src, ok := m.sources[fd]
		m.mu.Unlock()
		if !ok {
			continue
		}

		event := keventToMask(kev)
		if event == 0 {
			continue
		}
		dispatched++

		err := safeProcessEvents(src, loop, event)
		switch classifyDispatch(err) {
		case dispatchOK:
		case dispatchClosed:
			_ = m.RemoveSource(src)
		case dispatchFailed:
			if m.logger != nil {
				m.logger.Error("events: kqueue source failed, removing", "fd", fd, "error", err)
			}
			_ = m.RemoveSource(src)
		}
	}
	return dispatched, nil
}

func maskToKevents(fd int, mask EventMask, flags uint16) []unix.Kevent_t {
	var kevents []unix.Kevent_t
	if mask&ReadReady != 0 {
		kevents = append(kevents, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if mask&WriteReady != 0 {
		kevents = append(kevents, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return kevents
}

func keventToMask(kev *unix.Kevent_t) EventMask {
	var m EventMask
	switch kev.Filter {
	case unix.EVFILT_READ:
		m |= ReadReady
	case unix.EVFILT_WRITE:
		m |= WriteReady
	}
	return m
}

// secondsToTimespec converts the three-way WaitForEvents timeout contract
// into a *unix.Timespec, reporting whether a timespec should be passed at
// all (negative timeout => block indefinitely => pass nil).
func secondsToTimespec(timeout float64) (unix.Timespec, bool) {
	if timeout < 0 {
		return unix.Timespec{}, false
	}
	sec := int64(timeout)
	nsec := int64((timeout - float64(sec)) * 1e9)
	return unix.NsecToTimespec(sec*1e9 + nsec), true
}
