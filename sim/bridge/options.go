package bridge

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vecu-cosim/cosim-host/sim"
)

// Defaults for the bridge loop.
const (
	DefaultPollInterval   = 10 * time.Millisecond
	DefaultNoticeInterval = time.Second
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithPollInterval sets the sleep between iterations.
func WithPollInterval(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// WithNoticeInterval sets the minimum spacing of "waiting for broker"
// notices while the broker is unreachable.
func WithNoticeInterval(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.noticeInterval = d
		}
	}
}

// WithClock replaces the wall clock used for polling and notice spacing.
func WithClock(c sim.Clock) Option {
	return func(b *Bridge) { b.clock = c }
}

// WithLogger sets the bridge's logger.
func WithLogger(l *logrus.Entry) Option {
	return func(b *Bridge) { b.log = l }
}
