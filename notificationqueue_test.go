package events

import "testing"

func TestNotificationQueueEmpty(t *testing.T) {
	q := newNotificationQueue()
	if !q.Empty() {
		t.Fatal("expected new queue to be empty")
	}
	q.Push(NewNotification(func(*Loop, EventMask) {}))
	if q.Empty() {
		t.Fatal("expected queue to be non-empty after Push")
	}
}

func TestNotificationQueuePreservesOrder(t *testing.T) {
	q := newNotificationQueue()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.Push(NewNotification(func(*Loop, EventMask) { order = append(order, i) }))
	}
	drain := q.Swap()
	if len(drain) != 5 {
		t.Fatalf("drain length = %d, want 5", len(drain))
	}
	for i, n := range drain {
		n.source.ProcessEvents(nil, Notification)
		if order[i] != i {
			t.Fatalf("order[%d] = %d, want %d", i, order[i], i)
		}
	}
}

func TestNotificationQueueSwapIsStableAcrossRounds(t *testing.T) {
	q := newNotificationQueue()
	q.Push(NewNotification(func(*Loop, EventMask) {}))
	first := q.Swap()
	if len(first) != 1 {
		t.Fatalf("first drain length = %d, want 1", len(first))
	}
	if !q.Empty() {
		t.Fatal("expected queue empty after draining the only round")
	}
	q.Push(NewNotification(func(*Loop, EventMask) {}))
	second := q.Swap()
	if len(second) != 1 {
		t.Fatalf("second drain length = %d, want 1", len(second))
	}
}
