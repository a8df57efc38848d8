package sim

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer_InitialValues(t *testing.T) {
	b := NewBuffer()
	assert.Equal(t, Bool(false), b.Read(SlotAirbagIsDisabled))
	assert.Equal(t, Int(0), b.Read(SlotWarningStateIn))
	assert.Equal(t, Int(0), b.Read(SlotUserConfirmIn))
	assert.Equal(t, Int(0), b.Read(SlotUserConfirmOut))
	assert.Equal(t, Bool(true), b.Read(SlotDisableLampOut), "disable lamp starts lit")
	assert.Equal(t, Int(0), b.Read(SlotWarningStateOut))
	assert.Len(t, b.Snapshot(), len(Slots()))
}

func TestBuffer_Write_RejectsWrongKind(t *testing.T) {
	b := NewBuffer()
	err := b.Write(SlotWarningStateIn, Bool(true))
	assert.True(t, errors.Is(err, ErrTypeMismatch), "got %v", err)
	assert.Equal(t, Int(0), b.Read(SlotWarningStateIn))

	err = b.Write(Slot(99), Int(1))
	assert.True(t, errors.Is(err, ErrUnknownSignal), "got %v", err)
}

func TestPort_WriteRestrictedToOwnDirection(t *testing.T) {
	b := NewBuffer()
	bridge, orch := b.BridgePort(), b.SimPort()

	for _, s := range SlotsFor(FromBroker) {
		v := Value{}.Convert(s.Spec().Kind)
		assert.NoError(t, bridge.Write(s, v), "bridge writes %s", s)
		assert.Error(t, orch.Write(s, v), "orchestrator must not write %s", s)
	}
	for _, s := range SlotsFor(ToBroker) {
		v := Value{}.Convert(s.Spec().Kind)
		assert.NoError(t, orch.Write(s, v), "orchestrator writes %s", s)
		assert.Error(t, bridge.Write(s, v), "bridge must not write %s", s)
	}
	assert.Equal(t, FromBroker, bridge.Direction())
	assert.Equal(t, ToBroker, orch.Direction())
}

// TestBuffer_ConcurrentReadWrite_NoTornValues hammers every slot from its
// owning side while the other side reads. Each written value has distinct
// high and low halves, so a torn write would surface as a value outside the
// written set. Run with -race.
func TestBuffer_ConcurrentReadWrite_NoTornValues(t *testing.T) {
	const (
		iterations = 20000
		a          = int64(0x7FFF_FFFF_0000_0000)
		c          = int64(0x0000_0000_7FFF_FFFF)
	)
	b := NewBuffer()
	writers := map[Direction]*Port{FromBroker: b.BridgePort(), ToBroker: b.SimPort()}

	var (
		wg    sync.WaitGroup
		torn  atomic.Int64
		reads atomic.Int64
		stop  = make(chan struct{})
	)
	for _, s := range Slots() {
		s := s
		spec := s.Spec()
		port := writers[spec.Direction]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				var v Value
				if spec.Kind == KindBool {
					v = Bool(i%2 == 0)
				} else if i%2 == 0 {
					v = Int(a)
				} else {
					v = Int(c)
				}
				if err := port.Write(s, v); err != nil {
					t.Errorf("write %s: %v", s, err)
					return
				}
			}
		}()
	}
	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for _, s := range Slots() {
					v := b.Read(s)
					reads.Add(1)
					if v.Kind() != s.Spec().Kind {
						torn.Add(1)
						continue
					}
					if v.Kind() == KindBool {
						if raw := v.AsInt(); raw != 0 && raw != 1 {
							torn.Add(1)
						}
						continue
					}
					if raw := v.AsInt(); raw != 0 && raw != a && raw != c {
						torn.Add(1)
					}
				}
			}
		}()
	}
	wg.Wait()
	close(stop)
	readers.Wait()

	require.Positive(t, reads.Load())
	assert.Zero(t, torn.Load(), "observed torn or mistyped values")
}
