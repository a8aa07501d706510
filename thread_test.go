package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThreadStartStopIsIdempotent(t *testing.T) {
	th, err := NewThread()
	require.NoError(t, err)
	defer th.Loop().Close()

	th.Start()
	th.Start() // no-op
	require.NoError(t, th.Stop())
	require.NoError(t, th.Stop()) // already stopped, no-op
}

// Scenario 5 (SPEC_FULL.md §8): TTL passing among three loops. A
// notification pops the next thread from a shared stack and reposts itself
// there, urgently, until the stack is empty. Posted once into the first
// loop, the handler must run exactly 4 times (1 initial + 3 hops).
func TestTTLPassingAmongThreeLoops(t *testing.T) {
	threads := make([]*Thread, 3)
	for i := range threads {
		th, err := NewThread()
		require.NoError(t, err)
		threads[i] = th
		th.Start()
	}
	defer func() {
		for _, th := range threads {
			_ = th.Stop()
			_ = th.Loop().Close()
		}
	}()

	var (
		mu    sync.Mutex
		stack = append([]*Thread{}, threads...)
		runs  atomic.Int32
	)
	done := make(chan struct{})

	var relay NotificationCallback
	relay = func(loop *Loop, event EventMask) {
		n := runs.Add(1)

		mu.Lock()
		var next *Thread
		if len(stack) > 0 {
			next = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
		mu.Unlock()

		if next == nil {
			if n == 4 {
				close(done)
			}
			return
		}
		next.Loop().PostNotification(NewNotification(relay), true)
	}

	threads[0].Loop().PostNotification(NewNotification(relay), true)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not complete in time")
	}
	require.EqualValues(t, 4, runs.Load())
}

// Scenario 6: multi-producer queue throughput. Three thread-wrapped loops
// each run a 1ms repeating timer that enqueues 1 into a shared counter; the
// main goroutine waits until the sum reaches 1000.
func TestMultiProducerQueueThroughput(t *testing.T) {
	var total atomic.Int64
	threads := make([]*Thread, 3)
	for i := range threads {
		th, err := NewThread()
		require.NoError(t, err)
		threads[i] = th
		th.Start()

		th.Loop().ScheduleTimer(NewTimer(func(*Loop, EventMask) {
			total.Add(1)
		}, 0.001, true, false))
	}
	defer func() {
		for _, th := range threads {
			_ = th.Stop()
			_ = th.Loop().Close()
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for total.Load() < 1000 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.GreaterOrEqual(t, total.Load(), int64(1000))
}
