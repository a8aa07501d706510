package events

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Loop is a single-threaded cooperative event loop multiplexing OS
// readiness, timers, and cross-thread notifications onto one goroutine.
//
// The only methods safe to call from a goroutine other than the one
// currently driving the loop are [Loop.PostNotification],
// [Loop.ScheduleTimer], and [Loop.Stop]. Every other method — including all
// three drivers — is for the owning goroutine only.
type Loop struct {
	stopwatch *Stopwatch
	monitor   Monitor
	timers    *timerQueue
	notifs    *notificationQueue
	pipe      *urgentPipe
	pipeSrc   *FDSource

	rateLimit    int
	stopWhenIdle bool
	logger       Logger

	running         atomic.Bool
	owningGoroutine atomic.Uint64

	mu sync.Mutex // guards driver entry (only one driver call at a time)
}

// NewLoop constructs a [Loop] with its monitor, timer queue, notification
// queue, and urgent pipe fully wired. The urgent pipe is registered with
// the monitor immediately and is never deregistered for the lifetime of
// the loop — it is the "hidden" source excluded from the idle-stop check.
func NewLoop(opts ...LoopOption) (*Loop, error) {
	cfg := resolveLoopOptions(opts)

	mon, err := newMonitor(cfg.logger)
	if err != nil {
		return nil, err
	}
	pipe, err := newUrgentPipe()
	if err != nil {
		_ = mon.Close()
		return nil, err
	}

	l := &Loop{
		stopwatch:    NewStopwatch(),
		monitor:      mon,
		timers:       newTimerQueue(),
		notifs:       newNotificationQueue(),
		pipe:         pipe,
		rateLimit:    cfg.rateLimit,
		stopWhenIdle: cfg.stopWhenIdle,
		logger:       cfg.logger,
	}
	l.pipeSrc = NewFDSource(pipe.readFD, ReadReady, func(loop *Loop, event EventMask) {
		pipe.Drain()
	})
	if err := mon.AddSource(l.pipeSrc); err != nil {
		_ = pipe.Close()
		_ = mon.Close()
		return nil, err
	}
	return l, nil
}

// Stopwatch returns the loop's monotonic clock.
func (l *Loop) Stopwatch() *Stopwatch { return l.stopwatch }

// Close releases the monitor and urgent pipe file descriptors. The loop
// must not be running.
func (l *Loop) Close() error {
	err1 := l.monitor.Close()
	err2 := l.pipe.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

func (l *Loop) isOwningGoroutine() bool {
	id := l.owningGoroutine.Load()
	return id != 0 && id == currentGoroutineID()
}

// --- Registration (owning goroutine only) ---

// RegisterFD registers src with the monitor.
func (l *Loop) RegisterFD(src FileDescriptorSource) error {
	return l.monitor.AddSource(src)
}

// UnregisterFD deregisters src. Safe to call from within src's own
// callback (the poll backend supports O(1) self-removal in that case).
func (l *Loop) UnregisterFD(src FileDescriptorSource) error {
	return l.monitor.RemoveSource(src)
}

// --- Timers ---

// ScheduleTimer schedules source, computing its first fire time against the
// loop's stopwatch. Safe from any goroutine (§4.6): on the owning goroutine
// this pushes directly onto the heap; from another goroutine it is wrapped
// in an urgent notification that re-invokes ScheduleTimer on the owning
// goroutine.
func (l *Loop) ScheduleTimer(source TimerSource) {
	if l.isOwningGoroutine() {
		now := l.stopwatch.Now()
		l.timers.Push(source.NextTimeout(now, now), source)
		return
	}
	note := NewNotification(func(loop *Loop, event EventMask) {
		loop.ScheduleTimer(source)
	})
	l.PostNotification(note, true)
}

// --- Notifications ---

// PostNotification delivers source to the loop. On the owning goroutine it
// is invoked synchronously; from any other goroutine it is queued and, if
// urgent, the blocked monitor wait (if any) is interrupted immediately.
func (l *Loop) PostNotification(source NotificationSource, urgent bool) {
	if l.isOwningGoroutine() {
		l.dispatchNotification(source)
		return
	}
	l.notifs.Push(source)
	if urgent {
		l.pipe.Wake()
	}
}

func (l *Loop) dispatchNotification(source NotificationSource) {
	err := safeProcessEvents(source, l, Notification)
	if err != nil && l.logger != nil {
		l.logger.Error("events: notification handler failed", "error", err)
	}
}

// --- Stopping ---

// Stop halts the loop. On the owning goroutine it takes effect immediately
// (the current driver returns within this iteration); from any other
// goroutine it posts the stop-loop notification urgently.
func (l *Loop) Stop() {
	if l.isOwningGoroutine() {
		l.stopLocal()
		return
	}
	l.PostNotification(StopLoopNotification(), true)
}

func (l *Loop) stopLocal() {
	l.running.Store(false)
}

// --- Iteration primitive ---

// processTimers expires due timers, rescheduling repeaters, and returns the
// seconds until the next fire time (or -1 if the heap is empty), per §4.5.
func (l *Loop) processTimers() float64 {
	rate := l.rateLimit
	for {
		top, ok := l.timers.Peek()
		if !ok {
			return -1
		}
		now := l.stopwatch.Now()
		remaining := top.fireTime - now
		if remaining > 0 {
			return remaining
		}

		if l.rateLimit > 0 {
			rate--
			if rate < 0 {
				return 0
			}
		}

		handle := l.timers.Pop()
		err := safeProcessEvents(handle.source, l, Timeout)
		if err != nil && l.logger != nil {
			l.logger.Error("events: timer handler failed", "error", err)
		}

		if handle.source.Repeats() {
			next := handle.source.NextTimeout(handle.fireTime, l.stopwatch.Now())
			l.timers.Push(next, handle.source)
		}
	}
}

// processNotifications drains the pending notification queue, honouring
// the rate limit and re-enqueueing any leftover as non-urgent, per §4.7.
func (l *Loop) processNotifications() {
	if l.notifs.Empty() {
		return
	}
	drain := l.notifs.Swap()
	if len(drain) == 0 {
		return
	}

	limit := len(drain)
	if l.rateLimit > 0 && l.rateLimit < limit {
		limit = l.rateLimit
	}

	for i := 0; i < limit; i++ {
		l.dispatchNotification(drain[i].source)
	}

	if limit < len(drain) {
		if l.logger != nil {
			l.logger.Warn("events: notification rate limit exceeded, re-enqueueing", "dropped", len(drain)-limit)
		}
		for i := limit; i < len(drain); i++ {
			l.notifs.Push(drain[i].source)
		}
	}
}

// userSourceCount is the monitor's registered source count minus the
// always-present urgent pipe.
func (l *Loop) userSourceCount() int {
	n := l.monitor.SourceCount() - 1
	if n < 0 {
		return 0
	}
	return n
}

// processFileDescriptors blocks on the monitor for timeout seconds (three-
// way semantics per §4.4), or sleeps if there are no fd sources at all
// (including the hidden urgent pipe — true only before/after the monitor
// itself has been closed) but a positive timeout was requested.
func (l *Loop) processFileDescriptors(timeout float64) error {
	if l.monitor.SourceCount() > 0 {
		_, err := l.monitor.WaitForEvents(timeout, l)
		return err
	}
	if timeout > 0 {
		sleep(timeout)
	}
	return nil
}

// runOneIteration is the single primitive backing all three drivers,
// following §4.8 with two differences: a negative timer or caller timeout
// counts as "none" when the effective timeout is chosen, and the monitor is
// waited on even when the urgent pipe is its only source (see
// processFileDescriptors).
func (l *Loop) runOneIteration(useTimerTimeout bool, callerTimeout float64) error {
	timerTimeout := l.processTimers()
	l.processNotifications()

	if l.stopWhenIdle && l.userSourceCount() == 0 && l.timers.Len() == 0 {
		l.stopLocal()
	}
	if !l.running.Load() {
		return nil
	}

	effective := callerTimeout
	if timerTimeout >= 0 && (useTimerTimeout || callerTimeout < 0 || callerTimeout > timerTimeout) {
		effective = timerTimeout
	}

	if err := l.processFileDescriptors(effective); err != nil {
		return err
	}
	l.processNotifications()
	return nil
}

// enterDriver claims exclusive driver ownership for the calling goroutine,
// returning ErrLoopAlreadyRunning if another driver call is already in
// progress (on this or another goroutine).
func (l *Loop) enterDriver() (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrLoopAlreadyRunning
	}
	prev := l.owningGoroutine.Swap(currentGoroutineID())
	l.running.Store(true)
	return func() {
		l.owningGoroutine.Store(prev)
		l.mu.Unlock()
	}, nil
}

// --- Drivers ---

// RunOnce runs a single iteration. If block is true, the monitor wait may
// block indefinitely (or until the next timer); if false, it never blocks.
func (l *Loop) RunOnce(block bool) error {
	exit, err := l.enterDriver()
	if err != nil {
		return err
	}
	defer exit()

	timeout := 0.0
	if block {
		timeout = -1
	}
	err = l.runOneIteration(false, timeout)
	l.running.Store(false)
	return err
}

// RunForever iterates until [Loop.Stop] is called (locally or cross-thread).
func (l *Loop) RunForever() error {
	exit, err := l.enterDriver()
	if err != nil {
		return err
	}
	defer exit()

	for l.running.Load() {
		if err := l.runOneIteration(true, -1); err != nil {
			return err
		}
	}
	return nil
}

// RunUntilTimeout iterates until the timeout elapses or the loop is
// stopped, blocking each iteration for the caller's remaining countdown or
// the time until the next timer, whichever is shorter. Returns the final
// remaining time (may be ≤ 0).
func (l *Loop) RunUntilTimeout(timeout float64) (float64, error) {
	exit, err := l.enterDriver()
	if err != nil {
		return 0, err
	}
	defer exit()

	timer := NewEggTimer(timeout)
	timer.StartTimer()

	for l.running.Load() {
		remaining := timer.RemainingTime()
		if remaining <= 0 {
			break
		}
		if err := l.runOneIteration(false, remaining); err != nil {
			return timer.RemainingTime(), err
		}
	}
	l.running.Store(false)
	return timer.RemainingTime(), nil
}
