package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/supla-lite/suplad/internal/logger"
	"github.com/supla-lite/suplad/pkg/encoding"
	"github.com/supla-lite/suplad/pkg/packets"
	"github.com/supla-lite/suplad/pkg/proto"
	"github.com/supla-lite/suplad/pkg/server/events"
)

type peerKind uint8

const (
	peerUnregistered peerKind = iota
	peerDevice
	peerClient
)

var (
	errNotRegistered      = errors.New("peer is not registered for this call")
	errAlreadyRegistered  = errors.New("peer is already registered")
	errRegistrationFailed = errors.New("registration rejected")
	errDuplicateSession   = errors.New("another session is active for this peer")
)

// Conn is one accepted connection. A reader goroutine dispatches calls
// and an event goroutine drains the bound queue; the send mutex inside
// the stream serialises their writes.
type Conn struct {
	id     uint64
	srv    *Server
	stream *packets.Stream
	queue  *events.Queue
	log    *slog.Logger

	mu              sync.Mutex
	kind            peerKind
	entityID        int32
	peerVersion     uint8
	activityTimeout time.Duration
	pump            []events.ID
}

func newConn(s *Server, netConn net.Conn, id uint64) *Conn {
	return &Conn{
		id:     id,
		srv:    s,
		stream: packets.NewStream(netConn, packets.WithMinVersion(s.opts.MinProtoVersion)),
		queue:  events.NewQueue(),
		log: logger.With(
			logger.ConnID(id),
			logger.RemoteAddr(netConn.RemoteAddr().String()),
		),
		activityTimeout: s.opts.ActivityTimeout,
	}
}

func (c *Conn) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// unblock a Recv stuck behind the activity deadline
	stop := context.AfterFunc(ctx, func() { _ = c.stream.Close() })
	defer stop()

	c.log.Info("connection accepted")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.eventLoop(ctx)
	}()

	c.readLoop(ctx)
	c.teardown()
	cancel()
	wg.Wait()
	c.log.Info("connection closed")
}

func (c *Conn) readLoop(ctx context.Context) {
	for {
		_ = c.stream.SetReadDeadline(time.Now().Add(c.getActivityTimeout()))

		packet, err := c.stream.Recv()
		if err != nil {
			var netErr net.Error
			switch {
			case ctx.Err() != nil:
			case errors.Is(err, io.EOF):
				c.log.Info("peer disconnected")
			case errors.As(err, &netErr) && netErr.Timeout():
				c.log.Info("activity timeout lapsed")
			default:
				c.log.Warn("receive failed", logger.Err(err))
			}
			return
		}

		c.setPeerVersion(packet.Version)
		c.srv.metrics.RecordPacketReceived(packet.CallID.String())
		c.log.Debug("received", logger.Call(packet.CallID.String()))

		handler, ok := c.srv.calls.lookup(packet.CallID)
		if !ok {
			c.log.Warn("unknown call", logger.Call(packet.CallID.String()))
			return
		}
		if err := handler(ctx, c, packet.Data); err != nil {
			c.log.Error("call handler failed",
				logger.Call(packet.CallID.String()),
				logger.Err(err))
			return
		}
	}
}

func (c *Conn) eventLoop(ctx context.Context) {
	for {
		event, err := c.queue.Pop(ctx)
		if err != nil {
			return
		}
		scope := c.scope()
		c.srv.metrics.RecordEventDispatched(scope.String(), event.ID.String())
		c.srv.registry.Dispatch(ctx, scope, c, event)
	}
}

// teardown reverts registration side effects exactly once: the entity
// goes offline, peers are notified, and the queue stops accepting.
func (c *Conn) teardown() {
	c.mu.Lock()
	kind := c.kind
	entityID := c.entityID
	c.kind = peerUnregistered
	c.mu.Unlock()

	switch kind {
	case peerDevice:
		c.srv.state.DeviceDisconnected(entityID)
		c.srv.state.ServerQueue().Push(events.DeviceDisconnected, entityID)
	case peerClient:
		c.srv.state.ClientDisconnected(entityID)
		c.srv.state.ServerQueue().Push(events.ClientDisconnected, entityID)
	}

	c.queue.Close()
	_ = c.stream.Close()
}

// send marshals a record and writes it as a single framed call.
func (c *Conn) send(call proto.Call, record any) error {
	data, err := encoding.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", call, err)
	}
	if err := c.stream.Send(call, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", call, err)
	}
	c.srv.metrics.RecordPacketSent(call.String())
	c.log.Debug("sent", logger.Call(call.String()))
	return nil
}

func (c *Conn) scope() events.Scope {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.kind {
	case peerDevice:
		return events.ScopeDevice
	case peerClient:
		return events.ScopeClient
	default:
		return events.ScopeServer
	}
}

func (c *Conn) setRegistered(kind peerKind, entityID int32, tag string) {
	c.mu.Lock()
	c.kind = kind
	c.entityID = entityID
	c.mu.Unlock()
	c.log = c.log.With(logger.Peer(tag))
}

func (c *Conn) registeredDevice() (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kind != peerDevice {
		return 0, errNotRegistered
	}
	return c.entityID, nil
}

func (c *Conn) registeredClient() (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kind != peerClient {
		return 0, errNotRegistered
	}
	return c.entityID, nil
}

func (c *Conn) unregistered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kind == peerUnregistered
}

func (c *Conn) setPeerVersion(v uint8) {
	c.mu.Lock()
	c.peerVersion = v
	c.mu.Unlock()
}

func (c *Conn) getPeerVersion() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerVersion
}

func (c *Conn) setActivityTimeout(d time.Duration) {
	c.mu.Lock()
	c.activityTimeout = d
	c.mu.Unlock()
}

func (c *Conn) getActivityTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activityTimeout
}

// setPump arms the client-driven pump sequence sent in response to
// CS_GET_NEXT.
func (c *Conn) setPump(ids ...events.ID) {
	c.mu.Lock()
	c.pump = ids
	c.mu.Unlock()
}

func (c *Conn) popPump() (events.ID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pump) == 0 {
		return 0, false
	}
	next := c.pump[0]
	c.pump = c.pump[1:]
	return next, true
}
