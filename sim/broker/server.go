package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/vecu-cosim/cosim-host/sim"
)

// Server exposes a Store over TCP using the CBOR request/response protocol.
type Server struct {
	store *Store
	log   *logrus.Entry

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool
	wg      sync.WaitGroup
}

// NewServer returns a Server for store.
func NewServer(store *Store) *Server {
	return &Server{
		store: store,
		log:   logrus.WithField("component", "broker-server"),
		conns: make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections on ln until ctx is cancelled, then closes the
// listener and every open connection and waits for handlers to exit.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Infof("Serving broker on %s", ln.Addr())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
		s.closeAll()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.closeAll()
			s.wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting broker connection: %w", err)
		}
		if !s.track(conn) {
			_ = conn.Close()
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handle(conn)
		}()
	}
}

// track registers c unless the server is shutting down.
func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
	_ = c.Close()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	for c := range s.conns {
		_ = c.Close()
	}
}

func (s *Server) handle(conn net.Conn) {
	log := s.log.WithField("remote", conn.RemoteAddr().String())
	log.Debug("Client connected")
	dec := newDecoder(conn)
	enc := newEncoder(conn)
	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.WithError(err).Debug("Dropping client")
			}
			return
		}
		if err := enc.Encode(s.dispatch(req)); err != nil {
			log.WithError(err).Debug("Writing response failed")
			return
		}
	}
}

func (s *Server) dispatch(req request) response {
	resp := response{ID: req.ID}
	switch req.Op {
	case opGet:
		got := s.store.Get(req.Paths)
		resp.Values = make(map[string]wireDatapoint, len(got))
		for path, dp := range got {
			resp.Values[path] = datapointToWire(dp)
		}
	case opSet:
		values := make(map[string]sim.Value, len(req.Values))
		for path, w := range req.Values {
			v, ok := fromWire(w)
			if !ok {
				resp.Error = fmt.Sprintf("invalid value kind %d for %s", w.Kind, path)
				return resp
			}
			values[path] = v
		}
		if err := s.store.Set(values); err != nil {
			resp.Error = err.Error()
		}
	default:
		resp.Error = fmt.Sprintf("unknown operation %q", req.Op)
	}
	return resp
}
