// Package bridge mirrors boundary signals between the Buffer and the signal
// broker. It runs on its own goroutine and never blocks the orchestrator: a
// missing broker only means the from-broker slots keep their last values.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vecu-cosim/cosim-host/sim"
	"github.com/vecu-cosim/cosim-host/sim/broker"
)

// Stats counts bridge activity. Fields are safe to read from any goroutine.
type Stats struct {
	Connects   atomic.Int64
	Failures   atomic.Int64
	Iterations atomic.Int64
	Pulls      atomic.Int64 // from-broker slot updates
	Pushes     atomic.Int64 // to-broker writes
}

// Bridge is the broker side of the co-simulation.
type Bridge struct {
	client broker.Client
	host   string
	port   int
	buf    *sim.Buffer
	io     *sim.Port

	pollInterval   time.Duration
	noticeInterval time.Duration
	clock          sim.Clock
	log            *logrus.Entry
	notice         *rate.Limiter

	conn       broker.Conn
	lastPushed map[sim.Slot]sim.Value
	rejected   map[sim.Slot]sim.Value // last wrong-kind value seen per slot
	paths      []string

	Stats Stats
}

// New returns a Bridge syncing buf with the broker at host:port.
func New(client broker.Client, host string, port int, buf *sim.Buffer, opts ...Option) *Bridge {
	b := &Bridge{
		client:         client,
		host:           host,
		port:           port,
		buf:            buf,
		io:             buf.BridgePort(),
		pollInterval:   DefaultPollInterval,
		noticeInterval: DefaultNoticeInterval,
		clock:          sim.WallClock{},
		log:            logrus.WithField("component", "bridge"),
		lastPushed:     make(map[sim.Slot]sim.Value),
		rejected:       make(map[sim.Slot]sim.Value),
		paths:          sim.BrokerPaths(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.notice = rate.NewLimiter(rate.Every(b.noticeInterval), 1)
	return b
}

// Address returns the broker address in host:port form.
func (b *Bridge) Address() string { return fmt.Sprintf("%s:%d", b.host, b.port) }

// Run polls until ctx is cancelled and always returns nil: broker failures
// are logged and retried on the next iteration.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.disconnect()
	b.log.Infof("Connecting to broker at %s", b.Address())
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := b.Poll(ctx); err != nil && ctx.Err() == nil {
			if b.notice.AllowN(b.clock.Now(), 1) {
				b.log.Infof("Waiting for broker at %s...", b.Address())
			}
			b.log.WithError(err).Debug("Broker iteration failed")
		}
		if err := b.clock.Sleep(ctx, b.pollInterval); err != nil {
			return nil
		}
	}
}

// Poll performs one bridge iteration: connect if needed, pull changed
// from-broker signals into the Buffer, then push changed to-broker signals.
// Any broker error drops the connection and is returned wrapping
// sim.ErrBrokerUnavailable.
func (b *Bridge) Poll(ctx context.Context) error {
	b.Stats.Iterations.Add(1)
	if err := b.poll(ctx); err != nil {
		b.Stats.Failures.Add(1)
		b.disconnect()
		return fmt.Errorf("%w: %s: %v", sim.ErrBrokerUnavailable, b.Address(), err)
	}
	return nil
}

func (b *Bridge) poll(ctx context.Context) error {
	if b.conn == nil {
		conn, err := b.client.Connect(ctx, b.host, b.port)
		if err != nil {
			return err
		}
		b.conn = conn
		// A fresh connection may face a restarted broker.
		clear(b.lastPushed)
		b.Stats.Connects.Add(1)
		b.log.Infof("Connected to broker at %s", b.Address())
	}

	current, err := b.conn.GetCurrentValues(ctx, b.paths)
	if err != nil {
		return err
	}
	b.pull(current)
	return b.push(ctx)
}

func (b *Bridge) pull(current map[string]broker.Datapoint) {
	for _, s := range sim.SlotsFor(sim.FromBroker) {
		spec := s.Spec()
		dp, ok := current[spec.Path]
		if !ok {
			continue
		}
		if dp.Value.Kind() != spec.Kind {
			// Warn once per distinct bad value, not once per poll.
			if last, seen := b.rejected[s]; !seen || last != dp.Value {
				b.log.Warnf("Ignoring %s: broker holds %s, want %s", spec.Path, dp.Value.Kind(), spec.Kind)
				b.rejected[s] = dp.Value
			}
			continue
		}
		delete(b.rejected, s)
		old := b.io.Read(s)
		if old == dp.Value {
			continue
		}
		if err := b.io.Write(s, dp.Value); err != nil {
			b.log.WithError(err).Warnf("Writing %s", s)
			continue
		}
		b.Stats.Pulls.Add(1)
		b.log.Infof("%s: %s -> %s", spec.Path, old, dp.Value)
	}
}

func (b *Bridge) push(ctx context.Context) error {
	for _, s := range sim.SlotsFor(sim.ToBroker) {
		v := b.io.Read(s)
		if last, ok := b.lastPushed[s]; ok && last == v {
			continue
		}
		spec := s.Spec()
		if err := b.conn.SetCurrentValues(ctx, map[string]sim.Value{spec.Path: v}); err != nil {
			return err
		}
		b.lastPushed[s] = v
		b.Stats.Pushes.Add(1)
		b.log.Debugf("Published %s = %s", spec.Path, v)
	}
	return nil
}

func (b *Bridge) disconnect() {
	if b.conn == nil {
		return
	}
	if err := b.conn.Close(); err != nil && !errors.Is(err, broker.ErrClosed) {
		b.log.WithError(err).Debug("Closing broker connection")
	}
	b.conn = nil
}
