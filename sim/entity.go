package sim

// Entity is anything addressable by the scheduler. Concrete kinds (Channel,
// Node) implement Handle for the event kinds they understand; receiving any
// other kind is a protocol-design bug and halts the simulation.
type Entity interface {
	// ID returns the run-unique identity of the entity, assigned once at
	// construction and monotonically increasing across all entity kinds.
	ID() int
	// Handle processes a single event addressed to this entity.
	Handle(ev *Event)
}
