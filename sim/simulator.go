package sim

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/broadcast-sim/broadcast-sim/sim/config"
	"github.com/broadcast-sim/broadcast-sim/sim/trace"
)

// Simulator is the core object that owns simulated time, the event queue,
// and every identity counter in the run. Time advances only by popping the
// minimum-time event; no event may ever be scheduled in the past.
type Simulator struct {
	now      float64
	duration float64
	queue    *EventQueue
	rng      *rand.Rand
	tracer   *trace.Writer

	channel *Channel
	nodes   []*Node

	// Identity allocators. Plain per-simulator counters: reset only when a
	// new Simulator is built, never mid-run.
	nextEntityID int
	nextPacketID int
	nextEventSeq uint64

	initialized bool
}

// NewSimulator creates a simulator with an empty queue and time zero.
// Initialize must be called before Run.
func NewSimulator() *Simulator {
	return &Simulator{
		queue: NewEventQueue(),
	}
}

// Now returns the current simulation time in seconds.
func (s *Simulator) Now() float64 { return s.now }

// Duration returns the configured stop threshold in seconds.
func (s *Simulator) Duration() float64 { return s.duration }

// RNG returns the run's random source, seeded exactly once during
// Initialize so that a run is fully determined by the configured seed.
func (s *Simulator) RNG() *rand.Rand { return s.rng }

// Channel returns the shared broadcast medium.
func (s *Simulator) Channel() *Channel { return s.channel }

// Nodes returns the registered nodes in construction order.
func (s *Simulator) Nodes() []*Node { return s.nodes }

// QueueLen returns the number of pending events.
func (s *Simulator) QueueLen() int { return s.queue.Len() }

func (s *Simulator) allocEntityID() int {
	id := s.nextEntityID
	s.nextEntityID++
	return id
}

func (s *Simulator) allocPacketID() int {
	id := s.nextPacketID
	s.nextPacketID++
	return id
}

// newEvent builds an event stamped with the next sequence number. Sequence
// numbers are never reused; they provide the FIFO tie-break for events
// sharing a timestamp.
func (s *Simulator) newEvent(t float64, kind EventKind, dst, src Entity, pkt *Packet) *Event {
	s.nextEventSeq++
	return &Event{
		Time: t,
		Kind: kind,
		Dst:  dst,
		Src:  src,
		Pkt:  pkt,
		Seq:  s.nextEventSeq,
	}
}

// Schedule adds an event to the queue. Scheduling an event in the past is a
// causality violation: it indicates a protocol-logic defect and halts the
// run.
func (s *Simulator) Schedule(ev *Event) {
	if ev.Time < s.now {
		logrus.Panicf("schedule: entity %d is scheduling %s in the past (now=%f, event time=%f)",
			ev.Src.ID(), ev.Kind, s.now, ev.Time)
	}
	s.queue.Push(ev)
}

// Cancel removes a still-pending event from the queue. Cancelling an event
// that is not pending (already dispatched or already cancelled) is fatal,
// never silently ignored.
func (s *Simulator) Cancel(ev *Event) {
	if !s.queue.Cancel(ev) {
		logrus.Panicf("cancel: event %s seq=%d for entity %d is not pending",
			ev.Kind, ev.Seq, ev.Dst.ID())
	}
}

// Initialize binds one configured run to the simulator: it seeds the random
// source, attaches the trace writer, builds the channel and all nodes, and
// schedules each node's first packet arrival. The trace writer may be nil to
// disable recording.
func (s *Simulator) Initialize(run *config.Run, tw *trace.Writer) error {
	if s.initialized {
		return fmt.Errorf("simulator already initialized")
	}

	duration, err := run.Float("duration")
	if err != nil {
		return err
	}
	seed, err := run.Int("seed")
	if err != nil {
		return err
	}
	commRange, err := run.Float("range")
	if err != nil {
		return err
	}
	positions, err := run.Positions("nodes")
	if err != nil {
		return err
	}
	datarate, err := run.Float("datarate")
	if err != nil {
		return err
	}
	queueCap, err := run.Int("queue")
	if err != nil {
		return err
	}
	maxSize, err := run.Int("maxsize")
	if err != nil {
		return err
	}
	interarrivalSpec, err := run.Dist("interarrival")
	if err != nil {
		return err
	}
	sizeSpec, err := run.Dist("size")
	if err != nil {
		return err
	}
	procSpec, err := run.Dist("processing")
	if err != nil {
		return err
	}

	// Seed the random source exactly once, before any entity is
	// constructed, so the whole run is determined by the seed.
	s.rng = rand.New(rand.NewSource(int64(seed)))
	s.duration = duration
	s.tracer = tw

	s.channel = NewChannel(s, commRange)
	if run.Has("loss") {
		loss, err := run.Float("loss")
		if err != nil {
			return err
		}
		s.channel.SetLossModel(NewBernoulliLoss(loss, s.rng))
	}

	for _, pos := range positions {
		interarrival, err := NewDistribution(interarrivalSpec, s.rng)
		if err != nil {
			return err
		}
		size, err := NewDistribution(sizeSpec, s.rng)
		if err != nil {
			return err
		}
		procTime, err := NewDistribution(procSpec, s.rng)
		if err != nil {
			return err
		}
		node := newNode(s, s.channel, NodeConfig{
			X:             pos.X,
			Y:             pos.Y,
			DataRate:      datarate,
			QueueCapacity: queueCap,
			MaxSize:       maxSize,
			Interarrival:  interarrival,
			Size:          size,
			ProcTime:      procTime,
		})
		s.channel.Register(node)
		s.nodes = append(s.nodes, node)
	}

	// Traffic starts only after the whole topology is registered.
	for _, node := range s.nodes {
		node.start()
	}

	s.initialized = true
	return nil
}

// Run drives the simulation to completion: pop the next chronological event,
// advance the clock to its timestamp, and dispatch it to its destination.
// The run terminates normally when the queue is exhausted or the next event
// lies beyond the configured duration.
func (s *Simulator) Run() {
	if !s.initialized {
		logrus.Panicf("simulator: Run called before Initialize")
	}
	start := time.Now()
	lastReport := start
	for {
		ev := s.queue.PopMin()
		if ev == nil {
			logrus.Info("no more events in the simulation queue, terminating")
			break
		}
		if ev.Time > s.duration {
			logrus.Info("maximum simulation time reached, terminating")
			break
		}
		s.now = ev.Time
		logrus.Debugf("[t=%.9f] dispatching %s to entity %d", s.now, ev.Kind, ev.Dst.ID())
		ev.Dst.Handle(ev)

		// Progress reporting is a side effect with no bearing on
		// correctness: at most one line per wall-clock second.
		if time.Since(lastReport) >= time.Second {
			perc := math.Min(100, math.Floor(s.now/s.duration*100))
			logrus.Infof("progress: %3.0f%% (t=%f of %f)", perc, s.now, s.duration)
			lastReport = time.Now()
		}
	}
	logrus.Infof("simulation ended at t=%f after %v", s.now, time.Since(start).Round(time.Millisecond))
}

// Trace helpers. All are nil-safe so entities can run without a recorder
// attached (as in most tests).

func (s *Simulator) logPacket(src, dst Entity, p *Packet) {
	if s.tracer == nil {
		return
	}
	outcome := trace.Corrupted
	if p.State() == PacketReceived {
		outcome = trace.Received
	}
	s.tracer.Packet(s.now, src.ID(), dst.ID(), outcome, p.Size())
}

func (s *Simulator) logArrival(n Entity, size int) {
	if s.tracer == nil {
		return
	}
	s.tracer.Arrival(s.now, n.ID(), size)
}

func (s *Simulator) logQueueDrop(n Entity, size int) {
	if s.tracer == nil {
		return
	}
	s.tracer.QueueDrop(s.now, n.ID(), size)
}

func (s *Simulator) logQueueLength(n Entity, length int) {
	if s.tracer == nil {
		return
	}
	s.tracer.QueueLength(s.now, n.ID(), length)
}

func (s *Simulator) logState(n Entity, st NodeState) {
	if s.tracer == nil {
		return
	}
	s.tracer.NodeState(s.now, n.ID(), int(st))
}
