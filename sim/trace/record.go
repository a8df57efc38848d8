// Package trace provides per-tick recording of the co-simulation pipeline.
// This package has no dependencies on sim/; it stores plain data types.
package trace

// TickRecord captures the values flowing through the pipeline during one tick.
type TickRecord struct {
	Tick    int64
	SimTime float64

	// Zonal inputs
	AirbagIsDisabled bool
	WarningStateIn   int64
	Feedback         int64 // user-confirm fed back from the previous tick

	// Zonal -> Airbag
	DeactivationSwitch bool
	ZonalWarningState  int64

	// Airbag -> Cockpit
	DisableLamp int64
	EnableLamp  int64

	// Cockpit
	UserConfirmIn       int64
	CockpitDisableLamp  bool
	CockpitWarningState int64
	CockpitUserConfirm  int64

	// Published user-confirm echo
	ZonalUserConfirm int64
}
