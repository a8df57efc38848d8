// Package broker defines the signal broker contract used by the bridge and
// provides two implementations: an in-memory Store reachable in-process, and
// a CBOR-over-TCP transport that serves a Store to other processes.
package broker

import (
	"context"
	"time"

	"github.com/vecu-cosim/cosim-host/sim"
)

// DefaultHost and DefaultPort are the broker address used when none (or an
// invalid one) is given.
const (
	DefaultHost = "localhost"
	DefaultPort = 55555
)

// Datapoint is a signal's current value in the broker.
type Datapoint struct {
	Value     sim.Value
	Timestamp time.Time
}

// Client opens connections to a broker.
type Client interface {
	Connect(ctx context.Context, host string, port int) (Conn, error)
}

// Conn is a scoped broker connection. Callers must Close it on every path.
type Conn interface {
	// GetCurrentValues returns the current datapoints for paths in one
	// batch. Paths that have never been set are absent from the result.
	GetCurrentValues(ctx context.Context, paths []string) (map[string]Datapoint, error)
	// SetCurrentValues writes values, keyed by path.
	SetCurrentValues(ctx context.Context, values map[string]sim.Value) error
	Close() error
}
