package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/broker"
)

var errInjected = errors.New("injected broker failure")

// flakyClient serves a Store and can be switched off to simulate an outage.
// While down, Connect fails and open connections fail every call.
type flakyClient struct {
	store    *broker.Store
	down     atomic.Bool
	connects atomic.Int64

	mu   sync.Mutex
	sets []map[string]sim.Value
}

func newFlakyClient() *flakyClient {
	return &flakyClient{store: broker.NewStore()}
}

func (c *flakyClient) Connect(ctx context.Context, host string, port int) (broker.Conn, error) {
	if c.down.Load() {
		return nil, errInjected
	}
	inner, err := c.store.Client().Connect(ctx, host, port)
	if err != nil {
		return nil, err
	}
	c.connects.Add(1)
	return &flakyConn{client: c, inner: inner}, nil
}

// Sets returns every SetCurrentValues batch received so far.
func (c *flakyClient) Sets() []map[string]sim.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]sim.Value(nil), c.sets...)
}

func (c *flakyClient) resetSets() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets = nil
}

type flakyConn struct {
	client *flakyClient
	inner  broker.Conn
}

func (c *flakyConn) GetCurrentValues(ctx context.Context, paths []string) (map[string]broker.Datapoint, error) {
	if c.client.down.Load() {
		return nil, errInjected
	}
	return c.inner.GetCurrentValues(ctx, paths)
}

func (c *flakyConn) SetCurrentValues(ctx context.Context, values map[string]sim.Value) error {
	if c.client.down.Load() {
		return errInjected
	}
	c.client.mu.Lock()
	c.client.sets = append(c.client.sets, values)
	c.client.mu.Unlock()
	return c.inner.SetCurrentValues(ctx, values)
}

func (c *flakyConn) Close() error { return c.inner.Close() }

// stepClock advances only when Sleep is called.
type stepClock struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  int
	onSleep func(n int)
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Sleep(ctx context.Context, d time.Duration) error {
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

// newTestBridge returns a bridge over a fresh buffer that logs into a
// capturing hook.
func newTestBridge(client broker.Client, opts ...Option) (*Bridge, *sim.Buffer, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	buf := sim.NewBuffer()
	opts = append([]Option{WithLogger(logrus.NewEntry(logger))}, opts...)
	return New(client, "broker.test", 55555, buf, opts...), buf, hook
}

func countMessages(hook *logtest.Hook, prefix string) int {
	n := 0
	for _, e := range hook.AllEntries() {
		if strings.HasPrefix(e.Message, prefix) {
			n++
		}
	}
	return n
}

func path(s sim.Slot) string { return s.Spec().Path }
