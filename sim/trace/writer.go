package trace

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Options selects which record kinds are written. Packet outcomes, queue
// drops, and arrivals are the usual analysis input; queue lengths and node
// states are verbose and off by default.
type Options struct {
	Packets      bool
	QueueDrops   bool
	Arrivals     bool
	QueueLengths bool
	States       bool
}

// DefaultOptions enables packet outcomes, queue drops, and arrivals.
func DefaultOptions() Options {
	return Options{
		Packets:    true,
		QueueDrops: true,
		Arrivals:   true,
	}
}

// Writer records simulation events as CSV rows with the header
// time,src,dst,event,size. Times carry six fractional digits.
type Writer struct {
	w    *csv.Writer
	opts Options
}

// NewWriter creates a trace writer and emits the header row. Write errors
// surface on Flush.
func NewWriter(w io.Writer, opts Options) *Writer {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"time", "src", "dst", "event", "size"})
	return &Writer{w: cw, opts: opts}
}

func (t *Writer) record(rec Record) {
	_ = t.w.Write([]string{
		strconv.FormatFloat(rec.Time, 'f', 6, 64),
		strconv.Itoa(rec.Src),
		strconv.Itoa(rec.Dst),
		strconv.Itoa(int(rec.Kind)),
		strconv.Itoa(rec.Size),
	})
}

// Packet records the final outcome of one delivered packet copy.
func (t *Writer) Packet(time float64, src, dst int, outcome Kind, size int) {
	if !t.opts.Packets {
		return
	}
	t.record(Record{Time: time, Src: src, Dst: dst, Kind: outcome, Size: size})
}

// Arrival records the generation of a new packet at a node.
func (t *Writer) Arrival(time float64, node, size int) {
	if !t.opts.Arrivals {
		return
	}
	t.record(Record{Time: time, Src: node, Dst: node, Kind: Generated, Size: size})
}

// QueueDrop records a packet rejected by a full queue.
func (t *Writer) QueueDrop(time float64, node, size int) {
	if !t.opts.QueueDrops {
		return
	}
	t.record(Record{Time: time, Src: node, Dst: node, Kind: QueueDropped, Size: size})
}

// QueueLength records a node's queue length after it changed.
func (t *Writer) QueueLength(time float64, node, length int) {
	if !t.opts.QueueLengths {
		return
	}
	t.record(Record{Time: time, Src: node, Dst: node, Kind: QueueSize, Size: length})
}

// NodeState records a node's MAC state after a transition.
func (t *Writer) NodeState(time float64, node, state int) {
	if !t.opts.States {
		return
	}
	t.record(Record{Time: time, Src: node, Dst: node, Kind: NodeState, Size: state})
}

// Flush writes any buffered rows and reports the first error encountered.
func (t *Writer) Flush() error {
	t.w.Flush()
	return t.w.Error()
}
