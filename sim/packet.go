package sim

import "github.com/sirupsen/logrus"

// PacketState tracks the reception outcome of one delivered copy of a frame.
// States only move forward from PacketReceiving: once corrupted a copy never
// becomes received, and a received copy never changes again.
type PacketState int

const (
	// PacketReceiving marks a copy still in flight, outcome undecided.
	PacketReceiving PacketState = iota
	// PacketReceived marks a copy decoded cleanly by its receiver.
	PacketReceived
	// PacketCorrupted marks a copy destroyed by a collision at the receiver.
	PacketCorrupted
	// PacketCorruptedByChannel marks a copy lost to channel errors during
	// propagation, independent of any collision. Set only by the channel's
	// optional loss model.
	PacketCorruptedByChannel
)

func (s PacketState) String() string {
	switch s {
	case PacketReceiving:
		return "RECEIVING"
	case PacketReceived:
		return "RECEIVED"
	case PacketCorrupted:
		return "CORRUPTED"
	case PacketCorruptedByChannel:
		return "CORRUPTED_BY_CHANNEL"
	default:
		return "UNKNOWN"
	}
}

// Packet is the frame value carried by transmission and reception events.
// The transmitter creates the original; the channel hands every neighbor an
// independently owned copy, so mutating one recipient's copy never affects
// another's or the sender's.
type Packet struct {
	id       int
	size     int
	duration float64
	state    PacketState
}

// newPacket builds a packet with a run-unique id. Size is in bytes, duration
// in seconds (size*8/datarate of the transmitting node).
func newPacket(id, size int, duration float64) *Packet {
	return &Packet{
		id:       id,
		size:     size,
		duration: duration,
		state:    PacketReceiving,
	}
}

// ID returns the run-unique packet identity, shared by all copies of the
// same frame.
func (p *Packet) ID() int { return p.id }

// Size returns the packet size in bytes.
func (p *Packet) Size() int { return p.size }

// Duration returns the on-air duration of the packet in seconds.
func (p *Packet) Duration() float64 { return p.duration }

// State returns the current reception outcome of this copy.
func (p *Packet) State() PacketState { return p.state }

// Clone returns an independently owned copy of the packet with the state
// reset to PacketReceiving. The clone keeps the frame identity, size, and
// duration.
func (p *Packet) Clone() *Packet {
	return newPacket(p.id, p.size, p.duration)
}

// MarkReceived records a clean reception. Only a copy still in the
// PacketReceiving state can be received.
func (p *Packet) MarkReceived() {
	if p.state != PacketReceiving {
		logrus.Panicf("packet %d: illegal state transition %s -> RECEIVED", p.id, p.state)
	}
	p.state = PacketReceived
}

// MarkCorrupted records a collision. Corrupting an already corrupted copy is
// a no-op; corrupting a received copy is a logic error.
func (p *Packet) MarkCorrupted() {
	if p.state == PacketReceived {
		logrus.Panicf("packet %d: illegal state transition RECEIVED -> CORRUPTED", p.id)
	}
	p.state = PacketCorrupted
}

// MarkCorruptedByChannel records a channel-error loss. Only meaningful on a
// copy whose outcome is still undecided.
func (p *Packet) MarkCorruptedByChannel() {
	if p.state != PacketReceiving {
		logrus.Panicf("packet %d: illegal state transition %s -> CORRUPTED_BY_CHANNEL", p.id, p.state)
	}
	p.state = PacketCorruptedByChannel
}
