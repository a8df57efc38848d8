package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/broker"
	"github.com/vecu-cosim/cosim-host/sim/fmu"
)

// downClient never reaches a broker.
type downClient struct{}

func (downClient) Connect(context.Context, string, int) (broker.Conn, error) {
	return nil, errors.New("connection refused")
}

// hangClient blocks until its context is cancelled, either in Connect or,
// with hangInGet, in the first GetCurrentValues after a successful connect.
type hangClient struct {
	hangInGet bool
	entered   chan struct{}
	once      sync.Once
}

func newHangClient(hangInGet bool) *hangClient {
	return &hangClient{hangInGet: hangInGet, entered: make(chan struct{})}
}

func (c *hangClient) block(ctx context.Context) error {
	c.once.Do(func() { close(c.entered) })
	<-ctx.Done()
	return ctx.Err()
}

func (c *hangClient) Connect(ctx context.Context, _ string, _ int) (broker.Conn, error) {
	if c.hangInGet {
		return hangConn{c}, nil
	}
	return nil, c.block(ctx)
}

type hangConn struct{ client *hangClient }

func (c hangConn) GetCurrentValues(ctx context.Context, _ []string) (map[string]broker.Datapoint, error) {
	return nil, c.client.block(ctx)
}

func (hangConn) SetCurrentValues(context.Context, map[string]sim.Value) error { return nil }

func (hangConn) Close() error { return nil }

// failingUnit wraps a unit and rejects its failAt-th Advance.
type failingUnit struct {
	sim.Unit
	failAt   int
	advances int
}

func (u *failingUnit) Advance(t, h float64) error {
	u.advances++
	if u.advances == u.failAt {
		return sim.NewUnitError(u.Name(), "advance", sim.ErrStep, errors.New("injected failure"))
	}
	return u.Unit.Advance(t, h)
}

// sharedClock is a non-blocking clock safe for both loops.
type sharedClock struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  int
	onSleep func(n int)
}

func newSharedClock() *sharedClock {
	return &sharedClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *sharedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *sharedClock) Sleep(ctx context.Context, d time.Duration) error {
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

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CacheDir = t.TempDir()
	return cfg
}

func builtinUnits(t *testing.T) sim.Units {
	t.Helper()
	units, err := LoadUnits(fmu.NewLoader(t.TempDir()), DefaultUnitIDs())
	if err != nil {
		t.Fatalf("LoadUnits: %v", err)
	}
	return units
}
