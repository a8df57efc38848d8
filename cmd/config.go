package cmd

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/broker"
	"github.com/vecu-cosim/cosim-host/sim/host"
	"github.com/vecu-cosim/cosim-host/sim/trace"
)

// Config is the complete process configuration.
type Config struct {
	Broker     BrokerConfig     `mapstructure:"broker"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Units      UnitsConfig      `mapstructure:"units"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Trace      TraceConfig      `mapstructure:"trace"`
}

// BrokerConfig controls the broker connection and the bridge loop.
type BrokerConfig struct {
	// Address is <host>:<port>; the positional run argument overrides it
	Address          string `mapstructure:"address"`
	PollIntervalMs   int    `mapstructure:"poll_interval_ms"`
	NoticeIntervalMs int    `mapstructure:"notice_interval_ms"`
	DialTimeoutMs    int    `mapstructure:"dial_timeout_ms"`
}

// SimulationConfig holds the experiment timing in seconds.
type SimulationConfig struct {
	StepSize  float64 `mapstructure:"step_size"`
	StartTime float64 `mapstructure:"start_time"`
	// StopTime of 0 runs until interrupted
	StopTime float64 `mapstructure:"stop_time"`
}

// UnitsConfig names the unit loaded for each role.
type UnitsConfig struct {
	Zonal    string `mapstructure:"zonal"`
	Airbag   string `mapstructure:"airbag"`
	Cockpit  string `mapstructure:"cockpit"`
	CacheDir string `mapstructure:"cache_dir"`
}

// LoggingConfig controls logrus.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TraceConfig controls per-tick tracing.
type TraceConfig struct {
	Level    string `mapstructure:"level"`
	Capacity int    `mapstructure:"capacity"`
	// Output is a CSV path written when the run ends; empty disables export
	Output string `mapstructure:"output"`
}

// Default returns the built-in configuration.
func Default() *Config {
	units := host.DefaultUnitIDs()
	return &Config{
		Broker: BrokerConfig{
			Address:          fmt.Sprintf("%s:%d", broker.DefaultHost, broker.DefaultPort),
			PollIntervalMs:   10,
			NoticeIntervalMs: 1000,
			DialTimeoutMs:    1000,
		},
		Simulation: SimulationConfig{StepSize: 0.01},
		Units: UnitsConfig{
			Zonal:   units.Zonal,
			Airbag:  units.Airbag,
			Cockpit: units.Cockpit,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Trace:   TraceConfig{Level: string(trace.TraceLevelNone), Capacity: trace.DefaultCapacity},
	}
}

// SetDefaults registers every key with viper so env and file overrides
// resolve.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("broker.address", defaults.Broker.Address)
	viper.SetDefault("broker.poll_interval_ms", defaults.Broker.PollIntervalMs)
	viper.SetDefault("broker.notice_interval_ms", defaults.Broker.NoticeIntervalMs)
	viper.SetDefault("broker.dial_timeout_ms", defaults.Broker.DialTimeoutMs)

	viper.SetDefault("simulation.step_size", defaults.Simulation.StepSize)
	viper.SetDefault("simulation.start_time", defaults.Simulation.StartTime)
	viper.SetDefault("simulation.stop_time", defaults.Simulation.StopTime)

	viper.SetDefault("units.zonal", defaults.Units.Zonal)
	viper.SetDefault("units.airbag", defaults.Units.Airbag)
	viper.SetDefault("units.cockpit", defaults.Units.Cockpit)
	viper.SetDefault("units.cache_dir", defaults.Units.CacheDir)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)

	viper.SetDefault("trace.level", defaults.Trace.Level)
	viper.SetDefault("trace.capacity", defaults.Trace.Capacity)
	viper.SetDefault("trace.output", defaults.Trace.Output)
}

// Load reads the configuration from viper and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ValidationError is a single invalid configuration value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every invalid value found.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogFormats lists the accepted logging.format values.
func ValidLogFormats() []string { return []string{"text", "json"} }

// Validate returns every invalid value in c. The broker address is not
// checked here: an invalid address falls back to the default at run time.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	positive := func(field string, v int) {
		if v <= 0 {
			errs = append(errs, ValidationError{Field: field, Value: v, Message: "must be positive"})
		}
	}
	positive("broker.poll_interval_ms", c.Broker.PollIntervalMs)
	positive("broker.notice_interval_ms", c.Broker.NoticeIntervalMs)
	positive("broker.dial_timeout_ms", c.Broker.DialTimeoutMs)

	if c.Simulation.StepSize <= 0 {
		errs = append(errs, ValidationError{Field: "simulation.step_size", Value: c.Simulation.StepSize, Message: "must be positive"})
	}
	if c.Simulation.StartTime < 0 {
		errs = append(errs, ValidationError{Field: "simulation.start_time", Value: c.Simulation.StartTime, Message: "must be non-negative"})
	}
	if c.Simulation.StopTime < 0 {
		errs = append(errs, ValidationError{Field: "simulation.stop_time", Value: c.Simulation.StopTime, Message: "must be non-negative"})
	}

	for field, id := range map[string]string{
		"units.zonal":   c.Units.Zonal,
		"units.airbag":  c.Units.Airbag,
		"units.cockpit": c.Units.Cockpit,
	} {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, ValidationError{Field: field, Value: id, Message: "must name a unit"})
		}
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{Field: "logging.level", Value: c.Logging.Level, Message: "unknown log level"})
	}
	if !slices.Contains(ValidLogFormats(), c.Logging.Format) {
		errs = append(errs, ValidationError{Field: "logging.format", Value: c.Logging.Format, Message: "must be one of " + strings.Join(ValidLogFormats(), ", ")})
	}
	if !trace.IsValidTraceLevel(c.Trace.Level) {
		errs = append(errs, ValidationError{Field: "trace.level", Value: c.Trace.Level, Message: "must be none or ticks"})
	}
	slices.SortFunc(errs, func(a, b ValidationError) int { return strings.Compare(a.Field, b.Field) })
	return errs
}

// HostConfig converts c into the Supervisor's configuration for a broker at
// brokerHost:brokerPort.
func (c *Config) HostConfig(brokerHost string, brokerPort int) host.Config {
	return host.Config{
		BrokerHost:     brokerHost,
		BrokerPort:     brokerPort,
		PollInterval:   time.Duration(c.Broker.PollIntervalMs) * time.Millisecond,
		NoticeInterval: time.Duration(c.Broker.NoticeIntervalMs) * time.Millisecond,
		DialTimeout:    time.Duration(c.Broker.DialTimeoutMs) * time.Millisecond,
		Simulation: sim.OrchestratorConfig{
			StepSize:  c.Simulation.StepSize,
			StartTime: c.Simulation.StartTime,
			StopTime:  c.Simulation.StopTime,
		},
		Units: host.UnitIDs{
			Zonal:   c.Units.Zonal,
			Airbag:  c.Units.Airbag,
			Cockpit: c.Units.Cockpit,
		},
		CacheDir: c.Units.CacheDir,
		Trace: trace.TraceConfig{
			Level:    trace.TraceLevel(c.Trace.Level),
			Capacity: c.Trace.Capacity,
		},
	}
}
