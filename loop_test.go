package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Scenario 1 (SPEC_FULL.md §8): tick count over a fixed duration. A
// repeating ticker fires every 10ms and a one-shot stop timer fires at
// 1.1s; the tick count is capped at 100 and must reach exactly that cap.
func TestTickCountOverFixedDuration(t *testing.T) {
	loop, err := NewLoop(WithStopWhenIdle(false))
	require.NoError(t, err)
	defer loop.Close()

	count := 0
	var ticker *Timer
	ticker = NewTimer(func(*Loop, EventMask) {
		if count < 100 {
			count++
		}
		if count == 100 {
			ticker.Cancel()
		}
	}, 0.01, true, false)
	loop.ScheduleTimer(ticker)

	stop := NewTimer(func(*Loop, EventMask) {
		loop.Stop()
	}, 1.1, false, false)
	loop.ScheduleTimer(stop)

	require.NoError(t, loop.RunForever())
	require.Equal(t, 100, count)
}

// Scenario 2: bounded ticker. A 100ms repeating ticker run for 1.01s via
// RunUntilTimeout must tick exactly 10 times.
func TestBoundedTicker(t *testing.T) {
	loop, err := NewLoop(WithStopWhenIdle(false))
	require.NoError(t, err)
	defer loop.Close()

	count := 0
	ticker := NewTimer(func(*Loop, EventMask) { count++ }, 0.1, true, false)
	loop.ScheduleTimer(ticker)

	_, err = loop.RunUntilTimeout(1.01)
	require.NoError(t, err)
	require.Equal(t, 10, count)
}

// Scenario 3: cross-thread notifications. A background goroutine posts 10
// urgent notifications, each preceded by a 10ms sleep; the loop stops after
// the 10th receipt.
func TestCrossThreadNotifications(t *testing.T) {
	loop, err := NewLoop(WithStopWhenIdle(false))
	require.NoError(t, err)
	defer loop.Close()

	const want = 10
	received := 0

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < want; i++ {
			time.Sleep(10 * time.Millisecond)
			loop.PostNotification(NewNotification(func(*Loop, EventMask) {
				received++
				if received == want {
					loop.Stop()
				}
			}), true)
		}
	}()

	require.NoError(t, loop.RunForever())
	<-done
	require.Equal(t, want, received)
}

// Scenario 4: remote stop. A timer due at 1.0s would set timerStopped, but
// a concurrent goroutine stops the loop after 0.1s, so the timer must never
// fire.
func TestRemoteStop(t *testing.T) {
	loop, err := NewLoop(WithStopWhenIdle(false))
	require.NoError(t, err)
	defer loop.Close()

	timerStopped := false
	loop.ScheduleTimer(NewTimer(func(*Loop, EventMask) {
		timerStopped = true
		loop.Stop()
	}, 1.0, false, false))

	go func() {
		time.Sleep(100 * time.Millisecond)
		loop.Stop()
	}()

	require.NoError(t, loop.RunForever())
	require.False(t, timerStopped)
}

func TestRunOnceNonBlockingReturnsImmediately(t *testing.T) {
	loop, err := NewLoop()
	require.NoError(t, err)
	defer loop.Close()

	start := time.Now()
	require.NoError(t, loop.RunOnce(false))
	require.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestStopWhenIdleStopsWithinOneIteration(t *testing.T) {
	loop, err := NewLoop(WithStopWhenIdle(true))
	require.NoError(t, err)
	defer loop.Close()

	require.NoError(t, loop.RunForever())
}

func TestConcurrentDriversReturnErrLoopAlreadyRunning(t *testing.T) {
	loop, err := NewLoop(WithStopWhenIdle(false))
	require.NoError(t, err)
	defer loop.Close()

	go func() {
		_ = loop.RunForever()
	}()
	time.Sleep(20 * time.Millisecond)

	err = loop.RunOnce(false)
	require.ErrorIs(t, err, ErrLoopAlreadyRunning)

	loop.Stop()
}
