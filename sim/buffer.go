package sim

import (
	"fmt"
	"sync/atomic"
)

// Buffer is the boundary state shared by the orchestrator and the bridge. Each
// slot is a single atomic word, so a reader sees either the previous or the
// new value and never a mix; there is no lock that one loop can hold against
// the other.
type Buffer struct {
	cells [numSlots]atomic.Int64
}

// NewBuffer returns a Buffer with every slot at its declared initial value.
func NewBuffer() *Buffer {
	b := &Buffer{}
	for s := Slot(0); s < numSlots; s++ {
		b.cells[s].Store(slotSpecs[s].Initial.AsInt())
	}
	return b
}

// Read returns the latest fully written value of s.
func (b *Buffer) Read(s Slot) Value {
	spec := slotSpecs[s]
	return Value{kind: spec.Kind, raw: b.cells[s].Load()}
}

// Write stores v into s. v must have the slot's declared kind.
func (b *Buffer) Write(s Slot, v Value) error {
	if s < 0 || s >= numSlots {
		return fmt.Errorf("%w: slot %d", ErrUnknownSignal, int(s))
	}
	spec := slotSpecs[s]
	if v.Kind() != spec.Kind {
		return fmt.Errorf("%w: slot %s is %s, got %s", ErrTypeMismatch, spec.Name, spec.Kind, v.Kind())
	}
	b.cells[s].Store(v.raw)
	return nil
}

// Snapshot reads every slot. Slots are read one at a time; the result is not a
// consistent cut across slots.
func (b *Buffer) Snapshot() map[Slot]Value {
	out := make(map[Slot]Value, numSlots)
	for s := Slot(0); s < numSlots; s++ {
		out[s] = b.Read(s)
	}
	return out
}

// Port is a direction-restricted handle on a Buffer. Each loop receives the
// port for the slots it owns, which makes the single-writer rule hold by
// construction.
type Port struct {
	buf *Buffer
	dir Direction
}

// BridgePort returns the handle the bridge uses: it may write from-broker
// slots only.
func (b *Buffer) BridgePort() *Port { return &Port{buf: b, dir: FromBroker} }

// SimPort returns the handle the orchestrator uses: it may write to-broker
// slots only.
func (b *Buffer) SimPort() *Port { return &Port{buf: b, dir: ToBroker} }

// Read returns the current value of any slot.
func (p *Port) Read(s Slot) Value { return p.buf.Read(s) }

// Write stores v into s, refusing slots owned by the other loop.
func (p *Port) Write(s Slot, v Value) error {
	if s < 0 || s >= numSlots {
		return fmt.Errorf("%w: slot %d", ErrUnknownSignal, int(s))
	}
	if slotSpecs[s].Direction != p.dir {
		return fmt.Errorf("slot %s is %s and not writable from the %s side", s, slotSpecs[s].Direction, p.dir)
	}
	return p.buf.Write(s, v)
}

// Direction returns the slot direction this port may write.
func (p *Port) Direction() Direction { return p.dir }
