package sim

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// fakeUnit is an in-memory Unit. Outputs are recomputed by calc before every
// read and after every Advance, like the reference models.
type fakeUnit struct {
	name   string
	kinds  map[string]Kind
	values map[string]Value
	calc   func(v map[string]Value)
	state  UnitState

	advances   int
	failOnStep int // 1-based Advance call that fails; 0 never fails
	log        *[]string
}

func newFakeUnit(name string, kinds map[string]Kind, calc func(v map[string]Value), log *[]string) *fakeUnit {
	u := &fakeUnit{
		name:   name,
		kinds:  kinds,
		values: make(map[string]Value, len(kinds)),
		calc:   calc,
		state:  UnitInstantiated,
		log:    log,
	}
	for n, k := range kinds {
		u.values[n] = Value{}.Convert(k)
	}
	return u
}

func (u *fakeUnit) record(op string) {
	if u.log != nil {
		*u.log = append(*u.log, u.name+"."+op)
	}
}

func (u *fakeUnit) Name() string { return u.name }

func (u *fakeUnit) move(op string, from, to UnitState) error {
	u.record(op)
	if u.state != from {
		return NewUnitError(u.name, op, ErrProtocol, fmt.Errorf("unit is %s", u.state))
	}
	u.state = to
	return nil
}

func (u *fakeUnit) Configure(_, _ float64) error {
	return u.move("configure", UnitInstantiated, UnitConfigured)
}

func (u *fakeUnit) EnterInit() error {
	return u.move("enter-init", UnitConfigured, UnitInitializing)
}

func (u *fakeUnit) ExitInit() error {
	return u.move("exit-init", UnitInitializing, UnitStepping)
}

func (u *fakeUnit) SetSignal(name string, v Value) error {
	k, ok := u.kinds[name]
	if !ok {
		return NewUnitError(u.name, "set", ErrUnknownSignal, fmt.Errorf("%q", name))
	}
	if v.Kind() != k {
		return NewUnitError(u.name, "set", ErrTypeMismatch, fmt.Errorf("%q", name))
	}
	u.values[name] = v
	return nil
}

func (u *fakeUnit) GetSignal(name string) (Value, error) {
	if _, ok := u.kinds[name]; !ok {
		return Value{}, NewUnitError(u.name, "get", ErrUnknownSignal, fmt.Errorf("%q", name))
	}
	u.calc(u.values)
	return u.values[name], nil
}

func (u *fakeUnit) Advance(_, _ float64) error {
	u.record("advance")
	if u.state != UnitStepping {
		return NewUnitError(u.name, "advance", ErrProtocol, fmt.Errorf("unit is %s", u.state))
	}
	u.advances++
	if u.failOnStep > 0 && u.advances == u.failOnStep {
		u.state = UnitFailed
		return NewUnitError(u.name, "advance", ErrStep, fmt.Errorf("injected failure at step %d", u.advances))
	}
	u.calc(u.values)
	return nil
}

func (u *fakeUnit) Terminate() error {
	u.state = UnitTerminated
	return nil
}

// testUnits returns pass-through units with the same behaviour as the
// built-in reference models.
func testUnits(log *[]string) (Units, *fakeUnit, *fakeUnit, *fakeUnit) {
	zonal := newFakeUnit(RoleZonal, map[string]Kind{
		ZonalInAirbagIsDisabled:    KindBool,
		ZonalInWarningState:        KindInt,
		ZonalInUserConfirm:         KindInt,
		ZonalOutDeactivationSwitch: KindBool,
		ZonalOutWarningState:       KindInt,
		ZonalOutUserConfirm:        KindInt,
	}, func(v map[string]Value) {
		v[ZonalOutDeactivationSwitch] = v[ZonalInAirbagIsDisabled]
		v[ZonalOutWarningState] = v[ZonalInWarningState]
		v[ZonalOutUserConfirm] = v[ZonalInUserConfirm]
	}, log)

	airbag := newFakeUnit(RoleAirbag, map[string]Kind{
		AirbagInSwitch:       KindInt,
		AirbagOutDisableLamp: KindInt,
		AirbagOutEnableLamp:  KindInt,
	}, func(v map[string]Value) {
		on := v[AirbagInSwitch].AsInt() != 0
		v[AirbagOutDisableLamp] = Bool(on).Convert(KindInt)
		v[AirbagOutEnableLamp] = Bool(!on).Convert(KindInt)
	}, log)

	cockpit := newFakeUnit(RoleCockpit, map[string]Kind{
		CockpitInUserConfirm:   KindInt,
		CockpitInDisableLamp:   KindBool,
		CockpitInEnableLamp:    KindBool,
		CockpitInWarningState:  KindInt,
		CockpitOutUserConfirm:  KindInt,
		CockpitOutWarningState: KindInt,
		CockpitOutDisableLamp:  KindBool,
	}, func(v map[string]Value) {
		v[CockpitOutUserConfirm] = v[CockpitInUserConfirm]
		v[CockpitOutWarningState] = v[CockpitInWarningState]
		v[CockpitOutDisableLamp] = Bool(v[CockpitInDisableLamp].AsBool() && !v[CockpitInEnableLamp].AsBool())
	}, log)

	return Units{Zonal: zonal, Airbag: airbag, Cockpit: cockpit}, zonal, airbag, cockpit
}

// fakeClock advances only when Sleep is called.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
	// onSleep runs after each sleep with the sleep count
	onSleep func(n int)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps++
	n, hook := c.sleeps, c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

func (c *fakeClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}

// setInputs writes from-broker values the way the bridge would.
func setInputs(b *Buffer, disabled bool, warning, confirm int64) {
	p := b.BridgePort()
	_ = p.Write(SlotAirbagIsDisabled, Bool(disabled))
	_ = p.Write(SlotWarningStateIn, Int(warning))
	_ = p.Write(SlotUserConfirmIn, Int(confirm))
}
