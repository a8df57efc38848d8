package sim

import "testing"

func TestSlots_DirectionSplit(t *testing.T) {
	if n := len(SlotsFor(FromBroker)); n != 3 {
		t.Errorf("from-broker slots = %d, want 3", n)
	}
	if n := len(SlotsFor(ToBroker)); n != 3 {
		t.Errorf("to-broker slots = %d, want 3", n)
	}
	if n := len(Slots()); n != 6 {
		t.Errorf("slots = %d, want 6", n)
	}
}

func TestBrokerPaths_UniqueAndResolvable(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range BrokerPaths() {
		if seen[p] {
			t.Errorf("duplicate broker path %s", p)
		}
		seen[p] = true
		s, ok := SlotByPath(p)
		if !ok {
			t.Errorf("SlotByPath(%s) not found", p)
			continue
		}
		if got := s.Spec().Path; got != p {
			t.Errorf("SlotByPath(%s) resolved to %s", p, got)
		}
	}
	if _, ok := SlotByPath("Vehicle.Speed"); ok {
		t.Error("SlotByPath resolved an undeclared path")
	}
}

func TestSlotSpecs_InitialMatchesKind(t *testing.T) {
	for _, s := range Slots() {
		spec := s.Spec()
		if spec.Initial.Kind() != spec.Kind {
			t.Errorf("slot %s: initial is %s, declared %s", s, spec.Initial.Kind(), spec.Kind)
		}
		if spec.Name == "" {
			t.Errorf("slot %d has no name", int(s))
		}
	}
	if got := Slot(-1).String(); got != "slot(invalid)" {
		t.Errorf("Slot(-1).String() = %q", got)
	}
}
