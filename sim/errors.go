package sim

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by a Unit wraps exactly one of the first
// five; the broker side only ever produces ErrBrokerUnavailable.
var (
	ErrInstantiation     = errors.New("instantiation failed")
	ErrProtocol          = errors.New("lifecycle call out of order")
	ErrUnknownSignal     = errors.New("unknown signal")
	ErrTypeMismatch      = errors.New("signal type mismatch")
	ErrStep              = errors.New("step rejected by model")
	ErrBrokerUnavailable = errors.New("broker unavailable")
)

// UnitError records the unit and operation that failed.
type UnitError struct {
	Unit string
	Op   string
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Unit, e.Op, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// NewUnitError wraps err with a class sentinel and the failing unit/op.
// The detail may be nil when the class says everything.
func NewUnitError(unit, op string, class, detail error) *UnitError {
	err := class
	if detail != nil {
		err = fmt.Errorf("%w: %v", class, detail)
	}
	return &UnitError{Unit: unit, Op: op, Err: err}
}

// IsFatal reports whether err ends the simulation loop.
func IsFatal(err error) bool {
	return errors.Is(err, ErrInstantiation) ||
		errors.Is(err, ErrProtocol) ||
		errors.Is(err, ErrUnknownSignal) ||
		errors.Is(err, ErrTypeMismatch) ||
		errors.Is(err, ErrStep)
}
