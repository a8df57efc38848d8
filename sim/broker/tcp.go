package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/vecu-cosim/cosim-host/sim"
)

// Default timeouts for the TCP client.
const (
	DefaultDialTimeout    = time.Second
	DefaultRequestTimeout = 2 * time.Second
)

// TCPClient connects to a Server over TCP.
type TCPClient struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
}

// NewTCPClient returns a TCPClient with the given dial timeout; zero selects
// the default.
func NewTCPClient(dialTimeout time.Duration) *TCPClient {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	return &TCPClient{DialTimeout: dialTimeout, RequestTimeout: DefaultRequestTimeout}
}

func (c *TCPClient) Connect(ctx context.Context, host string, port int) (Conn, error) {
	d := net.Dialer{Timeout: c.DialTimeout}
	nc, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &tcpConn{
		conn:    nc,
		enc:     newEncoder(nc),
		dec:     newDecoder(nc),
		timeout: timeout,
	}, nil
}

type tcpConn struct {
	mu      sync.Mutex
	conn    net.Conn
	enc     *cbor.Encoder
	dec     *cbor.Decoder
	timeout time.Duration
	nextID  uint64
	closed  bool
}

// roundTrip sends req and waits for its response. The deadline is the
// earlier of ctx's deadline and the request timeout.
func (c *tcpConn) roundTrip(ctx context.Context, req request) (response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return response{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return response{}, err
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return response{}, err
	}
	// Unblock the read when ctx is cancelled mid-request.
	stop := context.AfterFunc(ctx, func() { _ = c.conn.SetDeadline(time.Now()) })
	defer stop()

	c.nextID++
	req.ID = c.nextID
	if err := c.enc.Encode(req); err != nil {
		return response{}, fmt.Errorf("sending %s request: %w", req.Op, err)
	}
	var resp response
	if err := c.dec.Decode(&resp); err != nil {
		return response{}, fmt.Errorf("reading %s response: %w", req.Op, err)
	}
	if resp.ID != req.ID {
		return response{}, fmt.Errorf("response id %d does not match request %d", resp.ID, req.ID)
	}
	if resp.Error != "" {
		return resp, errors.New("broker: " + resp.Error)
	}
	return resp, nil
}

func (c *tcpConn) GetCurrentValues(ctx context.Context, paths []string) (map[string]Datapoint, error) {
	resp, err := c.roundTrip(ctx, request{Op: opGet, Paths: paths})
	if err != nil {
		return nil, err
	}
	out := make(map[string]Datapoint, len(resp.Values))
	for path, w := range resp.Values {
		dp, ok := datapointFromWire(w)
		if !ok {
			return nil, fmt.Errorf("broker: invalid value kind %d for %s", w.Value.Kind, path)
		}
		out[path] = dp
	}
	return out, nil
}

func (c *tcpConn) SetCurrentValues(ctx context.Context, values map[string]sim.Value) error {
	req := request{Op: opSet, Values: make(map[string]wireValue, len(values))}
	for path, v := range values {
		req.Values[path] = toWire(v)
	}
	_, err := c.roundTrip(ctx, req)
	return err
}

func (c *tcpConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
