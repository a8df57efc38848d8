package sim

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/vecu-cosim/cosim-host/sim/trace"
)

// DefaultFeedback is the user-confirm value Zonal sees on the first tick,
// before Cockpit has produced one.
var DefaultFeedback = Int(0)

// Units are the three pipeline members, owned by the Orchestrator.
type Units struct {
	Zonal   Unit
	Airbag  Unit
	Cockpit Unit
}

func (u Units) all() []Unit { return []Unit{u.Zonal, u.Airbag, u.Cockpit} }

// OrchestratorConfig holds the experiment timing.
type OrchestratorConfig struct {
	StepSize  float64 // seconds of simulated time per tick; also the pacing sleep
	StartTime float64
	StopTime  float64 // <= StartTime runs until cancelled
}

// Bounded reports whether the run ends at StopTime.
func (c OrchestratorConfig) Bounded() bool { return c.StopTime > c.StartTime }

// Validate checks the timing parameters.
func (c OrchestratorConfig) Validate() error {
	if c.StepSize <= 0 {
		return fmt.Errorf("step size must be positive, got %g", c.StepSize)
	}
	if c.StartTime < 0 {
		return fmt.Errorf("start time must be non-negative, got %g", c.StartTime)
	}
	return nil
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClock replaces the wall clock used for pacing.
func WithClock(c Clock) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = c }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l *logrus.Entry) OrchestratorOption {
	return func(o *Orchestrator) { o.log = l }
}

// WithTrace records every tick into st.
func WithTrace(st *trace.SimulationTrace) OrchestratorOption {
	return func(o *Orchestrator) { o.trace = st }
}

// Orchestrator runs the fixed Zonal -> Airbag -> Cockpit -> Zonal schedule
// once per tick and publishes boundary outputs through the Buffer.
type Orchestrator struct {
	units Units
	port  *Port
	cfg   OrchestratorConfig

	clock   Clock
	log     *logrus.Entry
	trace   *trace.SimulationTrace
	Metrics *Metrics

	t           float64
	feedback    Value
	initialized bool
	failed      error
	ticks       atomic.Int64
}

// NewOrchestrator builds an orchestrator over units. It writes only the
// to-broker slots of buf.
func NewOrchestrator(units Units, buf *Buffer, cfg OrchestratorConfig, opts ...OrchestratorOption) (*Orchestrator, error) {
	if units.Zonal == nil || units.Airbag == nil || units.Cockpit == nil {
		return nil, errors.New("orchestrator: all three units are required")
	}
	if buf == nil {
		return nil, errors.New("orchestrator: buffer is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	o := &Orchestrator{
		units:    units,
		port:     buf.SimPort(),
		cfg:      cfg,
		clock:    WallClock{},
		log:      logrus.WithField("component", "orchestrator"),
		t:        cfg.StartTime,
		feedback: DefaultFeedback,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.Metrics = NewMetrics(SecondsToDuration(cfg.StepSize))
	return o, nil
}

// Ticks returns the number of completed ticks. Safe to call from any goroutine.
func (o *Orchestrator) Ticks() int64 { return o.ticks.Load() }

// Time returns the current simulated time. Only the owning goroutine may call it.
func (o *Orchestrator) Time() float64 { return o.t }

// Initialize walks all units through configure, enter-init and exit-init,
// stage by stage, then seeds Zonal's feedback input with DefaultFeedback.
func (o *Orchestrator) Initialize() error {
	if o.initialized {
		return NewUnitError("orchestrator", "initialize", ErrProtocol, errors.New("already initialized"))
	}
	for _, u := range o.units.all() {
		if err := u.Configure(o.cfg.StartTime, o.cfg.StopTime); err != nil {
			return o.fail(err)
		}
	}
	for _, u := range o.units.all() {
		if err := u.EnterInit(); err != nil {
			return o.fail(err)
		}
	}
	for _, u := range o.units.all() {
		if err := u.ExitInit(); err != nil {
			return o.fail(err)
		}
	}
	if err := o.units.Zonal.SetSignal(ZonalInUserConfirm, DefaultFeedback); err != nil {
		return o.fail(err)
	}
	o.initialized = true
	return nil
}

// Step executes exactly one tick. After any error the orchestrator is failed
// and every later Step returns the same error without touching the units.
func (o *Orchestrator) Step() (PipelineState, error) {
	if o.failed != nil {
		return PipelineState{}, o.failed
	}
	if !o.initialized {
		return PipelineState{}, o.fail(NewUnitError("orchestrator", "step", ErrProtocol, errors.New("not initialized")))
	}
	ps, err := o.step()
	if err != nil {
		return ps, o.fail(err)
	}
	o.t += o.cfg.StepSize
	o.ticks.Add(1)
	o.record(ps)
	return ps, nil
}

func (o *Orchestrator) step() (PipelineState, error) {
	z, a, c := o.units.Zonal, o.units.Airbag, o.units.Cockpit
	h := o.cfg.StepSize
	ps := PipelineState{
		Tick:             o.ticks.Load(),
		Time:             o.t,
		AirbagIsDisabled: o.port.Read(SlotAirbagIsDisabled),
		WarningStateIn:   o.port.Read(SlotWarningStateIn),
		UserConfirmIn:    o.port.Read(SlotUserConfirmIn),
		Feedback:         o.feedback,
	}
	var err error

	// Zonal
	if err = z.SetSignal(ZonalInAirbagIsDisabled, ps.AirbagIsDisabled); err != nil {
		return ps, err
	}
	if err = z.SetSignal(ZonalInWarningState, ps.WarningStateIn); err != nil {
		return ps, err
	}
	if err = z.Advance(o.t, h); err != nil {
		return ps, err
	}
	if ps.DeactivationSwitch, err = z.GetSignal(ZonalOutDeactivationSwitch); err != nil {
		return ps, err
	}
	if ps.ZonalWarningState, err = z.GetSignal(ZonalOutWarningState); err != nil {
		return ps, err
	}

	// Airbag takes the switch as an integer.
	if err = a.SetSignal(AirbagInSwitch, ps.DeactivationSwitch.Convert(KindInt)); err != nil {
		return ps, err
	}
	if err = a.Advance(o.t, h); err != nil {
		return ps, err
	}
	if ps.DisableLamp, err = a.GetSignal(AirbagOutDisableLamp); err != nil {
		return ps, err
	}
	if ps.EnableLamp, err = a.GetSignal(AirbagOutEnableLamp); err != nil {
		return ps, err
	}

	// Cockpit takes the lamps as booleans.
	inputs := []struct {
		name string
		v    Value
	}{
		{CockpitInDisableLamp, ps.DisableLamp.Convert(KindBool)},
		{CockpitInEnableLamp, ps.EnableLamp.Convert(KindBool)},
		{CockpitInWarningState, ps.ZonalWarningState},
		{CockpitInUserConfirm, ps.UserConfirmIn},
	}
	for _, in := range inputs {
		if err = c.SetSignal(in.name, in.v); err != nil {
			return ps, err
		}
	}
	if err = c.Advance(o.t, h); err != nil {
		return ps, err
	}
	if ps.CockpitDisableLamp, err = c.GetSignal(CockpitOutDisableLamp); err != nil {
		return ps, err
	}
	if ps.CockpitWarningState, err = c.GetSignal(CockpitOutWarningState); err != nil {
		return ps, err
	}
	if ps.CockpitUserConfirm, err = c.GetSignal(CockpitOutUserConfirm); err != nil {
		return ps, err
	}

	// Close the loop: Zonal sees this on its next Advance, never in this tick.
	if err = z.SetSignal(ZonalInUserConfirm, ps.CockpitUserConfirm); err != nil {
		return ps, err
	}
	o.feedback = ps.CockpitUserConfirm
	if ps.ZonalUserConfirm, err = z.GetSignal(ZonalOutUserConfirm); err != nil {
		return ps, err
	}

	if err = o.port.Write(SlotUserConfirmOut, ps.ZonalUserConfirm); err != nil {
		return ps, err
	}
	if err = o.port.Write(SlotDisableLampOut, ps.CockpitDisableLamp); err != nil {
		return ps, err
	}
	if err = o.port.Write(SlotWarningStateOut, ps.CockpitWarningState); err != nil {
		return ps, err
	}
	return ps, nil
}

// Run initializes the units if needed and ticks until ctx is cancelled, the
// stop time is reached, or a unit fails. Cancellation and reaching the stop
// time return nil; a unit failure is returned as-is. Units are terminated on
// every exit path.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer o.terminate()

	if !o.initialized {
		if err := o.Initialize(); err != nil {
			o.log.WithError(err).Error("Initialization failed")
			return err
		}
	}
	o.log.Infof("Starting co-simulation: step=%gs start=%gs stop=%s", o.cfg.StepSize, o.cfg.StartTime, o.stopLabel())

	pace := SecondsToDuration(o.cfg.StepSize)
	for {
		if ctx.Err() != nil {
			o.log.Infof("Co-simulation stopped after %d ticks at t=%gs", o.Ticks(), o.t)
			return nil
		}
		if o.done() {
			o.log.Infof("Reached stop time %gs after %d ticks", o.cfg.StopTime, o.Ticks())
			return nil
		}

		start := o.clock.Now()
		if _, err := o.Step(); err != nil {
			o.log.WithError(err).Errorf("Tick %d failed at t=%gs", o.Ticks(), o.t)
			return err
		}
		o.Metrics.observeTick(start, o.clock.Now(), o.t)

		// Soft pacing: sleep a full step regardless of how long the tick took.
		if err := o.clock.Sleep(ctx, pace); err != nil {
			o.log.Infof("Co-simulation stopped after %d ticks at t=%gs", o.Ticks(), o.t)
			return nil
		}
	}
}

// done reports whether a bounded run has covered [start, stop). A half-step
// tolerance absorbs accumulated float error in t.
func (o *Orchestrator) done() bool {
	return o.cfg.Bounded() && o.t+o.cfg.StepSize/2 >= o.cfg.StopTime
}

func (o *Orchestrator) stopLabel() string {
	if !o.cfg.Bounded() {
		return "unbounded"
	}
	return fmt.Sprintf("%gs", o.cfg.StopTime)
}

func (o *Orchestrator) fail(err error) error {
	if o.failed == nil {
		o.failed = err
		o.Metrics.FailureReason = err.Error()
	}
	return o.failed
}

func (o *Orchestrator) terminate() {
	for _, u := range o.units.all() {
		if err := u.Terminate(); err != nil {
			o.log.WithError(err).Debugf("Terminating %s", u.Name())
		}
	}
}

func (o *Orchestrator) record(ps PipelineState) {
	if !o.trace.Enabled() {
		return
	}
	o.trace.RecordTick(trace.TickRecord{
		Tick:                ps.Tick,
		SimTime:             ps.Time,
		AirbagIsDisabled:    ps.AirbagIsDisabled.AsBool(),
		WarningStateIn:      ps.WarningStateIn.AsInt(),
		Feedback:            ps.Feedback.AsInt(),
		DeactivationSwitch:  ps.DeactivationSwitch.AsBool(),
		ZonalWarningState:   ps.ZonalWarningState.AsInt(),
		DisableLamp:         ps.DisableLamp.AsInt(),
		EnableLamp:          ps.EnableLamp.AsInt(),
		UserConfirmIn:       ps.UserConfirmIn.AsInt(),
		CockpitDisableLamp:  ps.CockpitDisableLamp.AsBool(),
		CockpitWarningState: ps.CockpitWarningState.AsInt(),
		CockpitUserConfirm:  ps.CockpitUserConfirm.AsInt(),
		ZonalUserConfirm:    ps.ZonalUserConfirm.AsInt(),
	})
}
