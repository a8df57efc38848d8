// Package sim provides the core co-simulation engine for the vECU host.
//
// # Reading Guide
//
// Start with these files to understand the step loop:
//   - pipeline.go: unit signal names, the boundary slot table and PipelineState
//   - buffer.go: the shared boundary Buffer and its direction-restricted ports
//   - orchestrator.go: the per-tick Zonal -> Airbag -> Cockpit -> Zonal schedule
//
// # Architecture
//
// The sim package defines interfaces and shared types; implementations live in
// sub-packages:
//   - sim/fmu/: the concrete Unit (descriptor loading, lifecycle, handle table)
//   - sim/models/: built-in reference models registered into sim/fmu
//   - sim/broker/: broker client contract, in-memory store and CBOR wire transport
//   - sim/bridge/: the broker polling loop
//   - sim/host/: the supervisor running the step loop and the bridge together
//   - sim/trace/: per-tick trace recording
//
// # Concurrency
//
// Two goroutines share one Buffer. The orchestrator writes to-broker slots
// and reads from-broker slots; the bridge does the opposite. Each slot is a
// single atomic word, so neither loop can block the other.
package sim
