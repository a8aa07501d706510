package events

import "container/heap"

// timerHandle pairs an absolute fire time with the timer source it belongs
// to; it is the element type of the min-heap in [timerQueue].
type timerHandle struct {
	fireTime float64
	source   TimerSource
	index    int
}

// timerQueue is a min-heap of [timerHandle]s ordered by ascending fire
// time, grounded on the teacher's loop.go timerHeap (container/heap usage)
// generalized to the spec's TimerSource trait.
type timerQueue struct {
	handles timerHeap
}

func newTimerQueue() *timerQueue {
	q := &timerQueue{}
	heap.Init(&q.handles)
	return q
}

func (q *timerQueue) Len() int { return q.handles.Len() }

func (q *timerQueue) Push(fireTime float64, source TimerSource) {
	heap.Push(&q.handles, &timerHandle{fireTime: fireTime, source: source})
}

// Peek returns the earliest handle without removing it.
func (q *timerQueue) Peek() (*timerHandle, bool) {
	if len(q.handles) == 0 {
		return nil, false
	}
	return q.handles[0], true
}

// Pop removes and returns the earliest handle.
func (q *timerQueue) Pop() *timerHandle {
	return heap.Pop(&q.handles).(*timerHandle)
}

// NextTimeout reports the remaining seconds until the earliest handle fires
// (may be negative if already due), mirroring next_timeout in the design.
// ok is false when the queue is empty.
func (q *timerQueue) NextTimeout(now float64) (remaining float64, ok bool) {
	top, has := q.Peek()
	if !has {
		return -1, false
	}
	return top.fireTime - now, true
}

// timerHeap implements container/heap.Interface.
type timerHeap []*timerHandle

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].fireTime < h[j].fireTime }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	handle := x.(*timerHandle)
	handle.index = len(*h)
	*h = append(*h, handle)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	handle := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return handle
}
