package events

import "sync"

// Thread owns one [Loop] and one worker goroutine driving it with
// RunForever, per §4.10. Grounded on the teacher's loopDone-channel join
// pattern and on original_source's Thread.cpp (ctor configures
// stop_when_idle=false, start spawns the worker, stop posts a cross-thread
// Loop.Stop then joins).
type Thread struct {
	loop *Loop

	mu      sync.Mutex
	started bool
	done    chan struct{}
	runErr  error
}

// NewThread constructs a [Thread] wrapping a freshly created [Loop]. Any
// options are forwarded to [NewLoop], except that stop-when-idle is always
// forced to false: a thread-owned loop should keep running until
// explicitly stopped, not whenever it happens to run dry.
func NewThread(opts ...LoopOption) (*Thread, error) {
	loop, err := NewLoop(append(append([]LoopOption{}, opts...), WithStopWhenIdle(false))...)
	if err != nil {
		return nil, err
	}
	return &Thread{loop: loop}, nil
}

// Loop returns the owned loop. Safe to call from any goroutine; the
// returned pointer's cross-thread-safe methods ([Loop.PostNotification],
// [Loop.ScheduleTimer], [Loop.Stop]) are the only ones safe to use once
// Start has been called.
func (t *Thread) Loop() *Loop { return t.loop }

// Start spawns the worker goroutine, idempotently: a second call is a
// no-op.
func (t *Thread) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return
	}
	t.started = true
	t.done = make(chan struct{})
	go func() {
		defer close(t.done)
		t.runErr = t.loop.RunForever()
	}()
}

// Stop requests the loop to halt (cross-thread path of [Loop.Stop]) and
// waits for the worker goroutine to exit, returning any error RunForever
// returned. A Thread that was never started returns immediately.
func (t *Thread) Stop() error {
	t.mu.Lock()
	started := t.started
	done := t.done
	t.mu.Unlock()
	if !started {
		return nil
	}
	t.loop.Stop()
	<-done
	return t.runErr
}
