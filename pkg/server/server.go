// Package server implements the SUPLA protocol hub: it accepts device
// and client connections, dispatches calls to handlers, and routes
// state changes through the event bus to subscribed peers.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/supla-lite/suplad/internal/logger"
	"github.com/supla-lite/suplad/pkg/metrics"
	"github.com/supla-lite/suplad/pkg/proto"
	"github.com/supla-lite/suplad/pkg/server/events"
	"github.com/supla-lite/suplad/pkg/server/state"
)

// Options configures a Server. Zero values fall back to sane defaults.
type Options struct {
	// Addr is the plain TCP listener address, for example ":2015".
	Addr string

	// TLSAddr is the optional TLS listener address. Ignored when
	// TLSConfig is nil.
	TLSAddr   string
	TLSConfig *tls.Config

	// APIURL is embedded into issued OAuth tokens so clients can find
	// the HTTP API.
	APIURL string

	// LocationCaption names the single location sent to clients.
	LocationCaption string

	// SuperUserEmail and SuperUserPassword back the superuser
	// authorization call.
	SuperUserEmail    string
	SuperUserPassword string

	// ActivityTimeout is the initial per-connection silence limit.
	// Peers may adjust it within the protocol bounds.
	ActivityTimeout time.Duration

	// MinProtoVersion is the lowest accepted peer protocol version.
	MinProtoVersion uint8
}

func (o *Options) applyDefaults() {
	if o.LocationCaption == "" {
		o.LocationCaption = "Default"
	}
	if o.ActivityTimeout <= 0 {
		o.ActivityTimeout = proto.ActivityTimeoutDefault * time.Second
	}
	if o.MinProtoVersion == 0 {
		o.MinProtoVersion = proto.VersionMin
	}
}

// Server owns the listeners and the dispatch tables. Connections hold a
// reference back to the server plus their entity id; entities live in
// the state registry.
type Server struct {
	opts     Options
	state    *state.State
	calls    *callTable
	registry *events.Registry[*Conn]
	metrics  *metrics.ServerMetrics

	mu        sync.Mutex
	listeners []net.Listener
	cancel    context.CancelFunc
	started   bool

	wg       sync.WaitGroup
	connSeq  atomic.Uint64
	stopOnce sync.Once
}

// New builds a server around an initialized world state.
func New(st *state.State, opts Options) *Server {
	opts.applyDefaults()
	s := &Server{
		opts:    opts,
		state:   st,
		metrics: metrics.NewServerMetrics(),
	}
	s.calls = s.buildCallTable()
	s.registry = s.buildEventRegistry()
	return s
}

// Start binds the listeners and spawns the accept loops plus the
// server-scope event worker. It does not block; use Stop to shut down.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("server already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to bind %s: %w", s.opts.Addr, err)
	}
	s.listeners = append(s.listeners, ln)
	logger.Info("protocol listener bound", logger.RemoteAddr(ln.Addr().String()))

	if s.opts.TLSConfig != nil && s.opts.TLSAddr != "" {
		secure, err := tls.Listen("tcp", s.opts.TLSAddr, s.opts.TLSConfig)
		if err != nil {
			ln.Close()
			cancel()
			return fmt.Errorf("failed to bind tls %s: %w", s.opts.TLSAddr, err)
		}
		s.listeners = append(s.listeners, secure)
		logger.Info("tls listener bound", logger.RemoteAddr(secure.Addr().String()))
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.drainServerQueue(ctx)
	}()

	for _, l := range s.listeners {
		s.wg.Add(1)
		go func(l net.Listener) {
			defer s.wg.Done()
			s.acceptLoop(ctx, l)
		}(l)
	}

	s.started = true
	return nil
}

// Stop closes the listeners, cancels every connection and waits for all
// workers to drain.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		listeners := s.listeners
		s.mu.Unlock()

		for _, l := range listeners {
			_ = l.Close()
		}
		if cancel != nil {
			cancel()
		}
		s.state.ServerQueue().Close()
		s.wg.Wait()
		logger.Info("server stopped")
	})
}

// Addr returns the bound address of the plain listener, useful when
// Options.Addr requested an ephemeral port.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.listeners) == 0 {
		return nil
	}
	return s.listeners[0].Addr()
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		netConn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("accept failed", logger.Err(err))
			continue
		}

		conn := newConn(s, netConn, s.connSeq.Add(1))
		s.metrics.RecordConnectionAccepted()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			conn.serve(ctx)
			s.metrics.RecordConnectionClosed()
		}()
	}
}

// drainServerQueue is the single worker of the global server-scope
// queue. Its handlers mutate state and fan events out to peer queues.
func (s *Server) drainServerQueue(ctx context.Context) {
	queue := s.state.ServerQueue()
	for {
		event, err := queue.Pop(ctx)
		if err != nil {
			return
		}
		s.metrics.RecordEventDispatched(events.ScopeServer.String(), event.ID.String())
		s.registry.Dispatch(ctx, events.ScopeServer, nil, event)
	}
}
