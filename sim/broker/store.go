package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vecu-cosim/cosim-host/sim"
)

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("broker: connection closed")

// Store is an in-memory signal broker. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Datapoint
	now     func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]Datapoint), now: time.Now}
}

// Get returns the datapoints for the given paths that have been set.
func (s *Store) Get(paths []string) map[string]Datapoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Datapoint, len(paths))
	for _, p := range paths {
		if dp, ok := s.entries[p]; ok {
			out[p] = dp
		}
	}
	return out
}

// Set stores every value with the current timestamp.
func (s *Store) Set(values map[string]sim.Value) error {
	for path, v := range values {
		if path == "" {
			return errors.New("broker: empty signal path")
		}
		if !v.IsValid() {
			return fmt.Errorf("broker: invalid value for %s", path)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now()
	for path, v := range values {
		s.entries[path] = Datapoint{Value: v, Timestamp: ts}
	}
	return nil
}

// Len returns the number of paths currently holding a value.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Client returns a Client whose connections operate directly on s. The host
// and port passed to Connect are ignored.
func (s *Store) Client() Client { return localClient{store: s} }

type localClient struct{ store *Store }

func (c localClient) Connect(ctx context.Context, _ string, _ int) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &localConn{store: c.store}, nil
}

type localConn struct {
	store  *Store
	mu     sync.Mutex
	closed bool
}

func (c *localConn) check(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return ctx.Err()
}

func (c *localConn) GetCurrentValues(ctx context.Context, paths []string) (map[string]Datapoint, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	return c.store.Get(paths), nil
}

func (c *localConn) SetCurrentValues(ctx context.Context, values map[string]sim.Value) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	return c.store.Set(values)
}

func (c *localConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
