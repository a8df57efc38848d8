package sim

// Unit is one co-simulation unit. Implementations are not safe for concurrent
// use; the Orchestrator is the only caller.
//
// The lifecycle is Configure -> EnterInit -> ExitInit, each exactly once, then
// any number of Advance calls, then Terminate. Out-of-order calls fail with
// ErrProtocol. A failed Advance leaves the unit unusable.
type Unit interface {
	Name() string

	// Configure sets the experiment interval. stopTime <= startTime means
	// the experiment is unbounded.
	Configure(startTime, stopTime float64) error
	EnterInit() error
	ExitInit() error

	// SetSignal fails with ErrUnknownSignal if name is not declared and with
	// ErrTypeMismatch if v's kind differs from the declared kind.
	SetSignal(name string, v Value) error
	GetSignal(name string) (Value, error)

	Advance(currentTime, stepSize float64) error
	Terminate() error
}

// UnitState is a unit's position in its lifecycle.
type UnitState string

const (
	UnitInstantiated UnitState = "instantiated"
	UnitConfigured   UnitState = "configured"
	UnitInitializing UnitState = "initializing"
	UnitStepping     UnitState = "stepping"
	UnitFailed       UnitState = "failed"
	UnitTerminated   UnitState = "terminated"
)
