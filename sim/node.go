package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// NodeState enumerates the MAC machine states. The numeric values are what
// NODE_STATE trace rows carry.
type NodeState int

const (
	// NodeIdle means the node is neither sending nor receiving and its
	// queue is empty.
	NodeIdle NodeState = iota
	// NodeTX means the node is transmitting its committed packet.
	NodeTX
	// NodeRX means at least one frame is in the air at this node.
	NodeRX
	// NodeProc is the processing cooldown after a transmission or
	// reception, before operations resume.
	NodeProc
)

func (s NodeState) String() string {
	switch s {
	case NodeIdle:
		return "IDLE"
	case NodeTX:
		return "TX"
	case NodeRX:
		return "RX"
	case NodeProc:
		return "PROC"
	default:
		return "UNKNOWN"
	}
}

// rxTimeoutGuard is the fixed slack added to the worst-case frame duration
// when arming the reception watchdog.
const rxTimeoutGuard = 10e-6

// NodeConfig carries the per-node parameters resolved from one run.
type NodeConfig struct {
	X, Y          float64
	DataRate      float64 // bits per second
	QueueCapacity int     // pending packets; 0 = unbounded
	MaxSize       int     // largest possible packet in bytes
	Interarrival  Distribution
	Size          Distribution
	ProcTime      Distribution
}

// Node models a stationary device on the shared medium: a four-state MAC
// machine driving packet generation, an admission-controlled FIFO queue,
// collision detection across overlapping receptions, and a reception
// watchdog. There is no carrier sensing: a node never checks the channel
// before transmitting, and while transmitting it cannot detect incoming
// frames.
type Node struct {
	sim     *Simulator
	channel *Channel
	id      int

	x, y         float64
	datarate     float64
	queueCap     int
	maxSize      int
	interarrival Distribution
	size         Distribution
	procTime     Distribution

	// timeout is the watchdog duration: the time needed to transmit a
	// packet of the maximum size, plus a small fixed guard.
	timeout float64

	state NodeState
	// queue holds the sizes of packets waiting to be transmitted.
	queue []int
	// current is the packet being transmitted, or the single frame this
	// node committed to decode. At most one at a time.
	current *Packet
	// receivingCount tracks the frames currently in the air at this node,
	// decodable or not. Never negative.
	receivingCount int
	// pendingTimeout is the at-most-one outstanding RXTimeout event.
	pendingTimeout *Event
}

func newNode(sim *Simulator, channel *Channel, cfg NodeConfig) *Node {
	n := &Node{
		sim:          sim,
		channel:      channel,
		id:           sim.allocEntityID(),
		x:            cfg.X,
		y:            cfg.Y,
		datarate:     cfg.DataRate,
		queueCap:     cfg.QueueCapacity,
		maxSize:      cfg.MaxSize,
		interarrival: cfg.Interarrival,
		size:         cfg.Size,
		procTime:     cfg.ProcTime,
		timeout:      float64(cfg.MaxSize)*8/cfg.DataRate + rxTimeoutGuard,
		state:        NodeIdle,
	}
	sim.logState(n, NodeIdle)
	return n
}

// ID implements Entity.
func (n *Node) ID() int { return n.id }

// PosX returns the x position in meters.
func (n *Node) PosX() float64 { return n.x }

// PosY returns the y position in meters.
func (n *Node) PosY() float64 { return n.y }

// State returns the current MAC state.
func (n *Node) State() NodeState { return n.state }

// ReceivingCount returns the number of frames currently in the air at this
// node.
func (n *Node) ReceivingCount() int { return n.receivingCount }

// CurrentPacket returns the committed packet, or nil.
func (n *Node) CurrentPacket() *Packet { return n.current }

// QueueLen returns the number of queued packet sizes.
func (n *Node) QueueLen() int { return len(n.queue) }

// TimeoutDuration returns the derived watchdog duration in seconds.
func (n *Node) TimeoutDuration() float64 { return n.timeout }

// start begins node operation by scheduling the first packet arrival.
func (n *Node) start() {
	n.scheduleNextArrival()
}

// Handle implements Entity, dispatching on the event kind.
func (n *Node) Handle(ev *Event) {
	switch ev.Kind {
	case PacketArrival:
		n.handleArrival()
	case StartRX:
		n.handleStartRX(ev)
	case EndRX:
		n.handleEndRX(ev)
	case EndTX:
		n.handleEndTX(ev)
	case EndProc:
		n.handleEndProc()
	case RXTimeout:
		n.handleRXTimeout()
	default:
		logrus.Panicf("node %d received %s event which it cannot handle", n.id, ev.Kind)
	}
}

func (n *Node) scheduleNextArrival() {
	arrival := n.interarrival.NextValue()
	n.sim.Schedule(n.sim.newEvent(n.sim.Now()+arrival, PacketArrival, n, n, nil))
}

// handleArrival processes the generation of a new packet: transmit it
// immediately when idle, queue it when busy and space remains, drop it
// otherwise. The next arrival is rescheduled regardless of the admission
// outcome.
func (n *Node) handleArrival() {
	size := int(math.Round(n.size.NextValue()))
	n.sim.logArrival(n, size)
	if n.state == NodeIdle {
		// an idle node can have no packets waiting
		if len(n.queue) != 0 {
			logrus.Panicf("node %d is IDLE with %d queued packets", n.id, len(n.queue))
		}
		n.transmitPacket(size)
		n.state = NodeTX
		n.sim.logState(n, NodeTX)
	} else {
		if n.queueCap == 0 || len(n.queue) < n.queueCap {
			n.queue = append(n.queue, size)
			n.sim.logQueueLength(n, len(n.queue))
		} else {
			n.sim.logQueueDrop(n, size)
		}
	}
	n.scheduleNextArrival()
}

// handleStartRX processes the first bit of a frame reaching this node.
func (n *Node) handleStartRX(ev *Event) {
	pkt := ev.Pkt
	if n.state == NodeIdle {
		if n.receivingCount == 0 {
			// The node is idle with a clean channel: commit to decoding
			// this frame and arm the watchdog in case the reception never
			// resolves through the normal path.
			if n.current != nil {
				logrus.Panicf("node %d is IDLE but holds packet %d", n.id, n.current.ID())
			}
			n.current = pkt
			n.state = NodeRX
			n.sim.logState(n, NodeRX)
			if n.pendingTimeout != nil {
				logrus.Panicf("node %d already has a pending RX timeout (seq=%d)", n.id, n.pendingTimeout.Seq)
			}
			n.pendingTimeout = n.sim.newEvent(n.sim.Now()+n.timeout, RXTimeout, n, n, nil)
			n.sim.Schedule(n.pendingTimeout)
		} else {
			// Another signal is already in the air while we are idle; this
			// happens right after transmitting over an ongoing frame.
			// Without carrier sensing the new frame cannot be detected.
			pkt.MarkCorrupted()
		}
	} else {
		// Busy sending, receiving, or processing: the frame being decoded,
		// if any, collides with the new one, and the new one is
		// undecodable as well.
		if n.state == NodeRX && n.current != nil {
			n.current.MarkCorrupted()
		}
		pkt.MarkCorrupted()
	}
	// In every branch the end of this frame must be observed.
	n.sim.Schedule(n.sim.newEvent(n.sim.Now()+pkt.Duration(), EndRX, n, ev.Src, pkt))
	n.receivingCount++
}

// handleEndRX processes the last bit of a frame reaching this node.
func (n *Node) handleEndRX(ev *Event) {
	pkt := ev.Pkt
	// if the frame that ends is the one we committed to but we are not in
	// the RX state, something is very wrong
	if n.current != nil && pkt.ID() == n.current.ID() && n.state != NodeRX {
		logrus.Panicf("node %d: committed packet %d ended while in state %s", n.id, pkt.ID(), n.state)
	}
	if n.state == NodeRX {
		if pkt.State() == PacketReceiving {
			// no collision occurred: only the committed frame can end
			// still undecided
			if n.current == nil || pkt.ID() != n.current.ID() {
				logrus.Panicf("node %d: clean end of reception for packet %d it never committed to", n.id, pkt.ID())
			}
			pkt.MarkReceived()
		}
		// We may be in RX with no committed packet: an overlapping frame
		// corrupted the committed one and that one ended first. We stay in
		// RX because the end of a corrupted frame cannot be detected.
		if n.current != nil && pkt.ID() == n.current.ID() {
			n.current = nil
		}
		if n.receivingCount == 1 {
			// last frame in the air: resolve out of RX
			n.switchToProc()
			n.sim.Cancel(n.pendingTimeout)
			n.pendingTimeout = nil
		}
	}
	n.receivingCount--
	if n.receivingCount < 0 {
		logrus.Panicf("node %d: receiving count went negative", n.id)
	}
	n.sim.logPacket(ev.Src, n, pkt)
}

// handleRXTimeout is the escape hatch out of a stalled receive state. It can
// only fire while in RX with no committed packet: the watchdog outlives any
// decodable frame, so a committed packet must have resolved before it.
func (n *Node) handleRXTimeout() {
	if n.state != NodeRX {
		logrus.Panicf("node %d: RX timeout fired in state %s", n.id, n.state)
	}
	if n.current != nil {
		logrus.Panicf("node %d: RX timeout fired while committed to packet %d", n.id, n.current.ID())
	}
	n.pendingTimeout = nil
	n.switchToProc()
}

// handleEndTX completes this node's own transmission.
func (n *Node) handleEndTX(ev *Event) {
	if n.state != NodeTX {
		logrus.Panicf("node %d: end of transmission in state %s", n.id, n.state)
	}
	if n.current == nil || ev.Pkt == nil || ev.Pkt.ID() != n.current.ID() {
		logrus.Panicf("node %d: end of transmission for a packet it is not sending", n.id)
	}
	n.current = nil
	n.switchToProc()
}

// handleEndProc resumes operation after the processing cooldown.
func (n *Node) handleEndProc() {
	if n.state != NodeProc {
		logrus.Panicf("node %d: end of processing in state %s", n.id, n.state)
	}
	if len(n.queue) == 0 {
		n.state = NodeIdle
		n.sim.logState(n, NodeIdle)
	} else {
		size := n.queue[0]
		n.queue = n.queue[1:]
		n.transmitPacket(size)
		n.state = NodeTX
		n.sim.logState(n, NodeTX)
		n.sim.logQueueLength(n, len(n.queue))
	}
}

// switchToProc enters the processing state and schedules its end.
func (n *Node) switchToProc() {
	procTime := n.procTime.NextValue()
	n.sim.Schedule(n.sim.newEvent(n.sim.Now()+procTime, EndProc, n, n, nil))
	n.state = NodeProc
	n.sim.logState(n, NodeProc)
}

// transmitPacket builds a new frame, hands it to the channel, and schedules
// the end of this node's own transmission.
func (n *Node) transmitPacket(size int) {
	if n.current != nil {
		logrus.Panicf("node %d: transmit requested while holding packet %d", n.id, n.current.ID())
	}
	duration := float64(size) * 8 / n.datarate
	pkt := newPacket(n.sim.allocPacketID(), size, duration)
	n.channel.StartTransmission(n, pkt)
	n.sim.Schedule(n.sim.newEvent(n.sim.Now()+duration, EndTX, n, n, pkt))
	n.current = pkt
}
