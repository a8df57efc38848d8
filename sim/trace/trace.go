package trace

import (
	"fmt"
	"sync"
)

// TraceLevel controls the verbosity of tick tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelTicks records every tick's pipeline values.
	TraceLevelTicks TraceLevel = "ticks"
)

// DefaultCapacity bounds the number of retained tick records.
const DefaultCapacity = 1000

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelTicks: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level    TraceLevel
	Capacity int // most recent records kept; <= 0 means DefaultCapacity
}

// SimulationTrace keeps the most recent tick records in a ring. The
// simulation loop is unbounded, so older records are overwritten.
type SimulationTrace struct {
	Config TraceConfig

	mu      sync.Mutex
	ring    []TickRecord
	next    int
	full    bool
	dropped int64
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	if config.Capacity <= 0 {
		config.Capacity = DefaultCapacity
	}
	return &SimulationTrace{
		Config: config,
		ring:   make([]TickRecord, 0, config.Capacity),
	}
}

// Enabled reports whether records are kept.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelTicks
}

// RecordTick appends a tick record, evicting the oldest when full.
func (st *SimulationTrace) RecordTick(record TickRecord) {
	if !st.Enabled() {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.ring) < st.Config.Capacity {
		st.ring = append(st.ring, record)
		return
	}
	st.ring[st.next] = record
	st.next = (st.next + 1) % st.Config.Capacity
	st.full = true
	st.dropped++
}

// Ticks returns the retained records, oldest first.
func (st *SimulationTrace) Ticks() []TickRecord {
	if st == nil {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]TickRecord, 0, len(st.ring))
	if !st.full {
		return append(out, st.ring...)
	}
	out = append(out, st.ring[st.next:]...)
	return append(out, st.ring[:st.next]...)
}

// Dropped returns how many records were evicted.
func (st *SimulationTrace) Dropped() int64 {
	if st == nil {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.dropped
}

func (st *SimulationTrace) String() string {
	if st == nil {
		return "trace(nil)"
	}
	return fmt.Sprintf("trace(level=%s, kept=%d, dropped=%d)", st.Config.Level, len(st.Ticks()), st.Dropped())
}
