// Package trace records simulation events as plain delimited text, one CSV
// file per run. It holds pure data types and has no dependencies on sim/.
package trace

// Kind is the numeric event code written to the trace. The codes are part of
// the output format consumed by the analysis tooling, so they are stable.
type Kind int

const (
	// Received marks a packet decoded cleanly by its receiver.
	Received Kind = 1
	// Corrupted marks a packet destroyed by a collision or channel error.
	Corrupted Kind = 2
	// Generated marks a new packet arrival at its source node.
	Generated Kind = 3
	// QueueDropped marks a packet rejected by a full transmission queue.
	QueueDropped Kind = 4
	// QueueSize reports a node's queue length after it changed.
	QueueSize Kind = 5
	// NodeState reports a node's MAC state after a transition.
	NodeState Kind = 6
)

// Record is one trace row: what happened at which node, when, and the size
// (or length/state code) attached to it.
type Record struct {
	Time float64
	Src  int
	Dst  int
	Kind Kind
	Size int
}
