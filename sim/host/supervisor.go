// Package host assembles a co-simulation run: it loads the three units,
// wires them to a shared Buffer, and runs the orchestrator and the broker
// bridge as one task group.
package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/bridge"
	"github.com/vecu-cosim/cosim-host/sim/broker"
	"github.com/vecu-cosim/cosim-host/sim/fmu"
	"github.com/vecu-cosim/cosim-host/sim/trace"
)

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithBrokerClient replaces the TCP broker client.
func WithBrokerClient(c broker.Client) Option {
	return func(s *Supervisor) { s.client = c }
}

// WithClock drives both loops from c.
func WithClock(c sim.Clock) Option {
	return func(s *Supervisor) { s.clock = c }
}

// WithUnits supplies already instantiated units instead of loading them.
func WithUnits(u sim.Units) Option {
	return func(s *Supervisor) { s.units = &u }
}

// Supervisor owns one run.
type Supervisor struct {
	cfg    Config
	client broker.Client
	clock  sim.Clock
	units  *sim.Units
	log    *logrus.Entry

	buf          *sim.Buffer
	trace        *trace.SimulationTrace
	orchestrator *sim.Orchestrator
	bridge       *bridge.Bridge
}

// New loads the configured units and builds both loops. Nothing runs until
// Run is called.
func New(cfg Config, opts ...Option) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s := &Supervisor{
		cfg:   cfg,
		clock: sim.WallClock{},
		log:   logrus.WithField("component", "supervisor"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = broker.NewTCPClient(cfg.DialTimeout)
	}
	if s.units == nil {
		units, err := LoadUnits(fmu.NewLoader(cfg.CacheDir), cfg.Units)
		if err != nil {
			return nil, err
		}
		s.units = &units
	}

	s.buf = sim.NewBuffer()
	s.trace = trace.NewSimulationTrace(cfg.Trace)
	orch, err := sim.NewOrchestrator(*s.units, s.buf, cfg.Simulation,
		sim.WithClock(s.clock),
		sim.WithTrace(s.trace),
	)
	if err != nil {
		terminateAll(*s.units)
		return nil, err
	}
	s.orchestrator = orch
	s.bridge = bridge.New(s.client, cfg.BrokerHost, cfg.BrokerPort, s.buf,
		bridge.WithPollInterval(cfg.PollInterval),
		bridge.WithNoticeInterval(cfg.NoticeInterval),
		bridge.WithClock(s.clock),
	)
	return s, nil
}

// LoadUnits instantiates one unit per role. Units created before a failure
// are terminated.
func LoadUnits(l *fmu.Loader, ids UnitIDs) (sim.Units, error) {
	var (
		units sim.Units
		err   error
	)
	roles := []struct {
		name string
		id   string
		dst  *sim.Unit
	}{
		{sim.RoleZonal, ids.Zonal, &units.Zonal},
		{sim.RoleAirbag, ids.Airbag, &units.Airbag},
		{sim.RoleCockpit, ids.Cockpit, &units.Cockpit},
	}
	for _, r := range roles {
		var inst *fmu.Instance
		if inst, err = fmu.Load(l, r.name, r.id); err != nil {
			terminateAll(units)
			return sim.Units{}, err
		}
		*r.dst = inst
		logrus.Debugf("Loaded %s unit %s (%s)", r.name, inst.Descriptor().ModelIdentifier, r.id)
	}
	return units, nil
}

func terminateAll(u sim.Units) {
	for _, unit := range []sim.Unit{u.Zonal, u.Airbag, u.Cockpit} {
		if unit != nil {
			_ = unit.Terminate()
		}
	}
}

// Run starts the orchestrator and the bridge and waits for both. The bridge
// is stopped whenever the orchestrator returns, so the run ends on
// cancellation, on reaching the stop time, or on the first unit failure,
// which is returned.
func (s *Supervisor) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := pool.New().WithContext(runCtx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		defer cancel()
		return s.orchestrator.Run(ctx)
	})
	p.Go(s.bridge.Run)

	err := p.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.WithError(err).Error("Co-simulation failed")
		return err
	}
	return nil
}

// Buffer returns the shared boundary buffer.
func (s *Supervisor) Buffer() *sim.Buffer { return s.buf }

// Orchestrator returns the step loop.
func (s *Supervisor) Orchestrator() *sim.Orchestrator { return s.orchestrator }

// Bridge returns the broker loop.
func (s *Supervisor) Bridge() *bridge.Bridge { return s.bridge }

// Trace returns the tick trace; it records nothing unless tracing is enabled.
func (s *Supervisor) Trace() *trace.SimulationTrace { return s.trace }
