package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// speedOfLight is the propagation speed used for delay computation, in m/s.
const speedOfLight = 299792458.0

// Channel simulates the shared broadcast medium: it maintains the neighbor
// graph from node positions and the communication range, and on transmission
// start it fans out propagation-delayed StartRX events to all neighbors of
// the sender. The end of each reception is scheduled by the receiving node
// itself.
//
// The adjacency map is built incrementally during registration, before the
// run starts, and is read-only thereafter: nodes are stationary and never
// deregistered, so neighbor membership never shrinks.
type Channel struct {
	sim       *Simulator
	id        int
	commRange float64
	loss      LossModel
	nodes     []*Node
	neighbors map[int][]*Node
}

// NewChannel creates the channel for a given communication range in meters.
func NewChannel(sim *Simulator, commRange float64) *Channel {
	return &Channel{
		sim:       sim,
		id:        sim.allocEntityID(),
		commRange: commRange,
		neighbors: make(map[int][]*Node),
	}
}

// ID implements Entity.
func (c *Channel) ID() int { return c.id }

// Handle implements Entity. The channel schedules events but never receives
// any; being addressed is a protocol-design bug.
func (c *Channel) Handle(ev *Event) {
	logrus.Panicf("channel %d received %s event which it cannot handle", c.id, ev.Kind)
}

// SetLossModel attaches the optional channel-error hook consulted once per
// delivered copy. A nil model (the default) disables channel errors; the
// base collision logic never reads it.
func (c *Channel) SetLossModel(m LossModel) { c.loss = m }

// Register adds a node to the medium and incrementally recomputes the
// neighbor graph: every already-registered node strictly within the
// communication range of the new node gains a bidirectional edge with it.
// O(registered nodes) per call; called once per node at setup, never after
// the simulation starts.
func (c *Channel) Register(node *Node) {
	var added []*Node
	for _, n := range c.nodes {
		if n.ID() != node.ID() && distance(n, node) < c.commRange {
			added = append(added, n)
			c.neighbors[n.ID()] = append(c.neighbors[n.ID()], node)
		}
	}
	c.nodes = append(c.nodes, node)
	c.neighbors[node.ID()] = added
}

// Neighbors returns the nodes within communication range of n.
func (c *Channel) Neighbors(n *Node) []*Node {
	return c.neighbors[n.ID()]
}

// StartTransmission begins the broadcast of a frame: for every neighbor of
// the source it computes the propagation delay (distance over the speed of
// light), clones the packet so each recipient owns an independent copy, and
// schedules a StartRX event at the delayed time. Nothing is scheduled for
// the source itself, and out-of-range nodes remain entirely unaware the
// transmission occurred.
func (c *Channel) StartTransmission(src *Node, pkt *Packet) {
	for _, neighbor := range c.neighbors[src.ID()] {
		delay := distance(src, neighbor) / speedOfLight
		cp := pkt.Clone()
		if c.loss != nil && c.loss.Lost(src, neighbor, cp) {
			cp.MarkCorruptedByChannel()
		}
		c.sim.Schedule(c.sim.newEvent(c.sim.Now()+delay, StartRX, neighbor, src, cp))
	}
}

// distance computes the two-dimensional Euclidean distance between nodes.
func distance(a, b *Node) float64 {
	return math.Hypot(a.PosX()-b.PosX(), a.PosY()-b.PosY())
}
