package sim

// EventKind enumerates the event types driving the simulation.
type EventKind int

const (
	// PacketArrival signals that a node generated a new packet to send.
	PacketArrival EventKind = iota
	// StartRX signals the first bit of a frame reaching a receiver.
	StartRX
	// EndRX signals the last bit of a frame reaching a receiver.
	EndRX
	// EndTX signals that a node finished transmitting its current frame.
	EndTX
	// EndProc signals the end of the post-rx/tx processing period.
	EndProc
	// RXTimeout is the watchdog bounding the time a node can sit in the
	// receive state without resolving out of it.
	RXTimeout
)

func (k EventKind) String() string {
	switch k {
	case PacketArrival:
		return "PACKET_ARRIVAL"
	case StartRX:
		return "START_RX"
	case EndRX:
		return "END_RX"
	case EndTX:
		return "END_TX"
	case EndProc:
		return "END_PROC"
	case RXTimeout:
		return "RX_TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Event is an immutable record of what happens when, to whom, from whom,
// carrying what. Events are created through Simulator.newEvent so that every
// event gets a unique, monotonically increasing sequence number. The queue
// owns an event from Schedule until it is popped or cancelled.
type Event struct {
	// Time is the simulated timestamp (seconds) at which the event fires.
	Time float64
	// Kind selects the handler branch at the destination.
	Kind EventKind
	// Dst is the entity that handles the event.
	Dst Entity
	// Src is the entity that caused the event.
	Src Entity
	// Pkt is the optional frame payload, owned by this event instance.
	Pkt *Packet
	// Seq breaks ties between events sharing a timestamp: for equal times
	// the event enqueued first is dispatched first. Two events are the same
	// event iff their Seq values match.
	Seq uint64
}
