// Package sim provides the core discrete-event simulation engine for the
// shared wireless broadcast medium model.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - event.go: the immutable Event record and its (time, sequence) total order
//   - event_queue.go: the heap-backed scheduler with stable tie-breaking and
//     mid-queue cancellation
//   - simulator.go: the clock, the run loop, and entity/packet/event identity
//     allocation
//
// # Architecture
//
// The protocol model rides on the kernel:
//   - entity.go: the single capability every addressable participant exposes
//   - channel.go: neighbor graph and propagation-delayed broadcast fan-out
//   - node.go: the four-state MAC machine (idle/transmit/receive/process)
//   - packet.go: the frame value carried by events, one independent copy per
//     recipient
//   - distribution.go: inter-arrival, size, and processing time samplers
//
// Run configuration lives in sim/config; the CSV event recorder in sim/trace.
//
// Execution is strictly sequential: there is exactly one timeline, advanced
// only by popping the minimum-time event. Entities never block; they schedule
// a future event and return. Under a fixed seed a run is bit-for-bit
// reproducible.
package sim
