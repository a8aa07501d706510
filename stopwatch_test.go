package events

import (
	"testing"
	"time"
)

func TestStopwatchMonotonicallyIncreases(t *testing.T) {
	sw := NewStopwatch()
	a := sw.Now()
	time.Sleep(5 * time.Millisecond)
	b := sw.Now()
	if b < a {
		t.Fatalf("stopwatch went backwards: %v -> %v", a, b)
	}
	if b-a < 4*time.Millisecond.Seconds() {
		t.Fatalf("expected at least ~5ms elapsed, got %v", b-a)
	}
}

func TestEggTimerRemainingTimeCountsDown(t *testing.T) {
	egg := NewEggTimer(0.05)
	egg.StartTimer()
	if egg.RemainingTime() <= 0 {
		t.Fatal("expected positive remaining time immediately after start")
	}
	time.Sleep(60 * time.Millisecond)
	if egg.RemainingTime() > 0 {
		t.Fatal("expected countdown to have expired")
	}
}
