package host

import (
	"fmt"
	"time"

	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/bridge"
	"github.com/vecu-cosim/cosim-host/sim/broker"
	"github.com/vecu-cosim/cosim-host/sim/models"
	"github.com/vecu-cosim/cosim-host/sim/trace"
)

// UnitIDs names the unit to load for each pipeline role.
type UnitIDs struct {
	Zonal   string
	Airbag  string
	Cockpit string
}

// DefaultUnitIDs resolves every role to its built-in reference model.
func DefaultUnitIDs() UnitIDs {
	return UnitIDs{Zonal: models.ZonalID, Airbag: models.AirbagID, Cockpit: models.CockpitID}
}

// Config is everything the Supervisor needs to assemble a run.
type Config struct {
	BrokerHost     string
	BrokerPort     int
	PollInterval   time.Duration
	NoticeInterval time.Duration
	DialTimeout    time.Duration

	Simulation sim.OrchestratorConfig
	Units      UnitIDs
	CacheDir   string
	Trace      trace.TraceConfig
}

// DefaultConfig returns a Config for the built-in units against a broker on
// localhost.
func DefaultConfig() Config {
	return Config{
		BrokerHost:     broker.DefaultHost,
		BrokerPort:     broker.DefaultPort,
		PollInterval:   bridge.DefaultPollInterval,
		NoticeInterval: bridge.DefaultNoticeInterval,
		DialTimeout:    broker.DefaultDialTimeout,
		Simulation:     sim.OrchestratorConfig{StepSize: 0.01},
		Units:          DefaultUnitIDs(),
		Trace:          trace.TraceConfig{Level: trace.TraceLevelNone, Capacity: trace.DefaultCapacity},
	}
}

// Validate checks the parts of c that are not checked by the components
// themselves.
func (c Config) Validate() error {
	if c.BrokerHost == "" {
		return fmt.Errorf("broker host is required")
	}
	if c.BrokerPort <= 0 || c.BrokerPort > 65535 {
		return fmt.Errorf("broker port %d out of range", c.BrokerPort)
	}
	if c.Units.Zonal == "" || c.Units.Airbag == "" || c.Units.Cockpit == "" {
		return fmt.Errorf("a unit is required for every role")
	}
	if !trace.IsValidTraceLevel(string(c.Trace.Level)) {
		return fmt.Errorf("unknown trace level %q", c.Trace.Level)
	}
	return c.Simulation.Validate()
}
