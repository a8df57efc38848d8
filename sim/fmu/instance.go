package fmu

import (
	"errors"
	"fmt"

	"github.com/vecu-cosim/cosim-host/sim"
)

// store holds a unit's signal values by value reference.
type store struct {
	bools map[uint32]bool
	ints  map[uint32]int64
}

func (s *store) Bool(ref uint32) bool       { return s.bools[ref] }
func (s *store) SetBool(ref uint32, b bool) { s.bools[ref] = b }
func (s *store) Int(ref uint32) int64       { return s.ints[ref] }
func (s *store) SetInt(ref uint32, i int64) { s.ints[ref] = i }

func (s *store) get(v Variable) sim.Value {
	if v.Kind() == sim.KindBool {
		return sim.Bool(s.bools[v.ValueReference])
	}
	return sim.Int(s.ints[v.ValueReference])
}

func (s *store) set(v Variable, val sim.Value) {
	if v.Kind() == sim.KindBool {
		s.bools[v.ValueReference] = val.AsBool()
		return
	}
	s.ints[v.ValueReference] = val.AsInt()
}

// Instance is a sim.Unit backed by a registered Model. The name-to-handle
// table is resolved once in Instantiate and reused for every call.
type Instance struct {
	name  string
	desc  *Descriptor
	model Model
	state sim.UnitState

	handles map[string]Variable
	vars    *store

	startTime float64
	stopTime  float64
}

var _ sim.Unit = (*Instance)(nil)

// Instantiate creates a unit named name from d. It fails with
// sim.ErrInstantiation when no model is registered for d's identifier or the
// model cannot bind to the declared signals.
func Instantiate(name string, d *Descriptor) (*Instance, error) {
	if d == nil {
		return nil, sim.NewUnitError(name, "instantiate", sim.ErrInstantiation, errors.New("nil descriptor"))
	}
	if err := d.Validate(); err != nil {
		return nil, sim.NewUnitError(name, "instantiate", sim.ErrInstantiation, err)
	}
	factory, ok := lookupModel(d.ModelIdentifier)
	if !ok {
		return nil, sim.NewUnitError(name, "instantiate", sim.ErrInstantiation,
			fmt.Errorf("no model registered for %q", d.ModelIdentifier))
	}
	model := factory()
	if err := model.Bind(d); err != nil {
		return nil, sim.NewUnitError(name, "instantiate", sim.ErrInstantiation, err)
	}

	inst := &Instance{
		name:    name,
		desc:    d,
		model:   model,
		state:   sim.UnitInstantiated,
		handles: make(map[string]Variable, len(d.Variables)),
		vars:    &store{bools: map[uint32]bool{}, ints: map[uint32]int64{}},
	}
	for _, v := range d.Variables {
		inst.handles[v.Name] = v
		start, _ := v.StartValue() // validated above
		inst.vars.set(v, start)
	}
	return inst, nil
}

// Load resolves id through l and instantiates it.
func Load(l *Loader, name, id string) (*Instance, error) {
	d, err := l.Load(id)
	if err != nil {
		return nil, sim.NewUnitError(name, "instantiate", err, nil)
	}
	return Instantiate(name, d)
}

func (u *Instance) Name() string { return u.name }

// Descriptor returns the descriptor the unit was instantiated from.
func (u *Instance) Descriptor() *Descriptor { return u.desc }

// State returns the unit's lifecycle state.
func (u *Instance) State() sim.UnitState { return u.state }

func (u *Instance) transition(op string, from, to sim.UnitState) error {
	if u.state != from {
		return sim.NewUnitError(u.name, op, sim.ErrProtocol,
			fmt.Errorf("unit is %s, want %s", u.state, from))
	}
	u.state = to
	return nil
}

func (u *Instance) Configure(startTime, stopTime float64) error {
	if err := u.transition("configure", sim.UnitInstantiated, sim.UnitConfigured); err != nil {
		return err
	}
	u.startTime, u.stopTime = startTime, stopTime
	return nil
}

func (u *Instance) EnterInit() error {
	return u.transition("enter-init", sim.UnitConfigured, sim.UnitInitializing)
}

func (u *Instance) ExitInit() error {
	if err := u.transition("exit-init", sim.UnitInitializing, sim.UnitStepping); err != nil {
		return err
	}
	u.model.Calculate(u.vars)
	return nil
}

func (u *Instance) lookup(op, name string) (Variable, error) {
	if u.state == sim.UnitTerminated || u.state == sim.UnitFailed {
		return Variable{}, sim.NewUnitError(u.name, op, sim.ErrProtocol, fmt.Errorf("unit is %s", u.state))
	}
	v, ok := u.handles[name]
	if !ok {
		return Variable{}, sim.NewUnitError(u.name, op, sim.ErrUnknownSignal, fmt.Errorf("%q", name))
	}
	return v, nil
}

func (u *Instance) SetSignal(name string, val sim.Value) error {
	v, err := u.lookup("set", name)
	if err != nil {
		return err
	}
	if val.Kind() != v.Kind() {
		return sim.NewUnitError(u.name, "set", sim.ErrTypeMismatch,
			fmt.Errorf("%q is %s, got %s", name, v.Kind(), val.Kind()))
	}
	u.vars.set(v, val)
	return nil
}

func (u *Instance) GetSignal(name string) (sim.Value, error) {
	v, err := u.lookup("get", name)
	if err != nil {
		return sim.Value{}, err
	}
	if u.state == sim.UnitStepping || u.state == sim.UnitInitializing {
		u.model.Calculate(u.vars)
	}
	return u.vars.get(v), nil
}

func (u *Instance) Advance(currentTime, stepSize float64) error {
	if u.state != sim.UnitStepping {
		return sim.NewUnitError(u.name, "advance", sim.ErrProtocol,
			fmt.Errorf("unit is %s, want %s", u.state, sim.UnitStepping))
	}
	if stepSize <= 0 {
		u.state = sim.UnitFailed
		return sim.NewUnitError(u.name, "advance", sim.ErrStep, fmt.Errorf("non-positive step size %g", stepSize))
	}
	if err := u.model.DoStep(u.vars, currentTime, stepSize); err != nil {
		u.state = sim.UnitFailed
		return sim.NewUnitError(u.name, "advance", sim.ErrStep, err)
	}
	return nil
}

// Terminate releases the unit. It is idempotent and allowed from any state.
func (u *Instance) Terminate() error {
	u.state = sim.UnitTerminated
	return nil
}
