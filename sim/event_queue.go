package sim

import "container/heap"

// eventHeap implements heap.Interface with deterministic ordering.
// Ordering: time → sequence number. Many events legitimately share a
// timestamp (e.g. simultaneous neighbor notifications); the sequence number
// enforces strict FIFO among them so that, for a fixed seed, a run is
// bit-for-bit reproducible regardless of the underlying heap layout.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].Seq < h[j].Seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// EventQueue is the time-ordered scheduler structure. Causality (no event in
// the past) is enforced by the owning Simulator before Push.
type EventQueue struct {
	h eventHeap
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{h: make(eventHeap, 0)}
	heap.Init(&q.h)
	return q
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int { return len(q.h) }

// Push inserts an event in O(log n).
func (q *EventQueue) Push(ev *Event) {
	heap.Push(&q.h, ev)
}

// PopMin removes and returns the event with the smallest (time, sequence)
// key. It returns nil when the queue is empty, which is the normal
// simulation-complete termination path, not an error.
func (q *EventQueue) PopMin() *Event {
	if len(q.h) == 0 {
		return nil
	}
	return heap.Pop(&q.h).(*Event)
}

// Cancel removes a specific still-pending event, matched on its sequence
// number only (several events can share a time and kind). It reports whether
// the event was found; the caller treats a miss as fatal.
func (q *EventQueue) Cancel(ev *Event) bool {
	for i := range q.h {
		if q.h[i].Seq == ev.Seq {
			heap.Remove(&q.h, i)
			return true
		}
	}
	return false
}
