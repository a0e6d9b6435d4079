package sim

import (
	"testing"
)

func testEvent(t float64, seq uint64) *Event {
	return &Event{Time: t, Kind: PacketArrival, Seq: seq}
}

// TestEventQueue_TimeOrdering tests that events pop in timestamp order
func TestEventQueue_TimeOrdering(t *testing.T) {
	q := NewEventQueue()

	q.Push(testEvent(100, 1))
	q.Push(testEvent(50, 2))
	q.Push(testEvent(150, 3))

	for i, want := range []float64{50, 100, 150} {
		ev := q.PopMin()
		if ev == nil || ev.Time != want {
			t.Errorf("pop %d: got %v, want time %f", i, ev, want)
		}
	}

	if q.Len() != 0 {
		t.Errorf("queue should be empty, len = %d", q.Len())
	}
}

// TestEventQueue_SequenceTieBreak tests that same-timestamp events pop in
// insertion order
func TestEventQueue_SequenceTieBreak(t *testing.T) {
	q := NewEventQueue()

	// insert out of sequence order
	q.Push(testEvent(100, 3))
	q.Push(testEvent(100, 1))
	q.Push(testEvent(100, 2))

	for i, want := range []uint64{1, 2, 3} {
		ev := q.PopMin()
		if ev == nil || ev.Seq != want {
			t.Errorf("pop %d: got %v, want seq %d", i, ev, want)
		}
	}
}

// TestEventQueue_DeterministicOrdering tests that the pop order does not
// depend on the insertion order
func TestEventQueue_DeterministicOrdering(t *testing.T) {
	events := []*Event{
		testEvent(50, 1),
		testEvent(100, 2),
		testEvent(100, 3),
		testEvent(100, 4),
		testEvent(200, 5),
	}

	insertionOrders := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 4, 0, 3, 1},
	}

	var first []uint64
	for _, order := range insertionOrders {
		q := NewEventQueue()
		for _, idx := range order {
			q.Push(events[idx])
		}
		var popped []uint64
		for q.Len() > 0 {
			popped = append(popped, q.PopMin().Seq)
		}
		if first == nil {
			first = popped
			continue
		}
		for i := range first {
			if popped[i] != first[i] {
				t.Errorf("insertion order %v: position %d popped seq %d, want %d",
					order, i, popped[i], first[i])
			}
		}
	}

	for i, want := range []uint64{1, 2, 3, 4, 5} {
		if first[i] != want {
			t.Errorf("position %d: seq %d, want %d", i, first[i], want)
		}
	}
}

// TestEventQueue_Cancel tests that a cancelled event is never popped
func TestEventQueue_Cancel(t *testing.T) {
	q := NewEventQueue()

	e1 := testEvent(10, 1)
	e2 := testEvent(20, 2)
	e3 := testEvent(30, 3)
	q.Push(e1)
	q.Push(e2)
	q.Push(e3)

	if !q.Cancel(e2) {
		t.Fatal("Cancel returned false for a pending event")
	}

	var popped []uint64
	for q.Len() > 0 {
		popped = append(popped, q.PopMin().Seq)
	}
	if len(popped) != 2 || popped[0] != 1 || popped[1] != 3 {
		t.Errorf("popped %v, want [1 3]", popped)
	}

	// cancelling again must report a miss
	if q.Cancel(e2) {
		t.Error("Cancel returned true for an already-cancelled event")
	}
}

// TestEventQueue_CancelMatchesOnSequence tests that cancellation matches the
// event identity, not its time or kind
func TestEventQueue_CancelMatchesOnSequence(t *testing.T) {
	q := NewEventQueue()

	// two events sharing time and kind
	e1 := testEvent(10, 1)
	e2 := testEvent(10, 2)
	q.Push(e1)
	q.Push(e2)

	if !q.Cancel(e2) {
		t.Fatal("Cancel returned false for a pending event")
	}

	ev := q.PopMin()
	if ev == nil || ev.Seq != 1 {
		t.Errorf("popped %v, want seq 1", ev)
	}
	if q.Len() != 0 {
		t.Errorf("queue should be empty, len = %d", q.Len())
	}
}

// TestEventQueue_EmptyPop tests that popping an exhausted queue returns nil
func TestEventQueue_EmptyPop(t *testing.T) {
	q := NewEventQueue()
	if q.PopMin() != nil {
		t.Error("PopMin on empty queue should return nil")
	}
}
