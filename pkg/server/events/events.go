// Package events implements the in-process event bus: named events
// delivered on scoped FIFO queues to handlers registered at startup.
package events

import (
	"context"
	"errors"
	"sync"

	"github.com/supla-lite/suplad/internal/logger"
)

// Scope selects which handler set an event is dispatched into.
type Scope uint8

const (
	ScopeServer Scope = iota
	ScopeDevice
	ScopeClient
)

func (s Scope) String() string {
	switch s {
	case ScopeServer:
		return "server"
	case ScopeDevice:
		return "device"
	case ScopeClient:
		return "client"
	default:
		return "unknown"
	}
}

// ID names an event. The set is closed; handlers are bound per (scope, id).
type ID uint8

const (
	DeviceConnected ID = iota + 1
	DeviceDisconnected
	ClientConnected
	ClientDisconnected
	ChannelRegisterValue
	ChannelValueChanged
	ChannelSetValue
	GetChannelState
	DeviceConfig
	SendLocations
	SendChannels
	SendScenes
	ChannelStateResult
	DeviceConfigResult
)

var idNames = map[ID]string{
	DeviceConnected:      "DEVICE_CONNECTED",
	DeviceDisconnected:   "DEVICE_DISCONNECTED",
	ClientConnected:      "CLIENT_CONNECTED",
	ClientDisconnected:   "CLIENT_DISCONNECTED",
	ChannelRegisterValue: "CHANNEL_REGISTER_VALUE",
	ChannelValueChanged:  "CHANNEL_VALUE_CHANGED",
	ChannelSetValue:      "CHANNEL_SET_VALUE",
	GetChannelState:      "GET_CHANNEL_STATE",
	DeviceConfig:         "DEVICE_CONFIG",
	SendLocations:        "SEND_LOCATIONS",
	SendChannels:         "SEND_CHANNELS",
	SendScenes:           "SEND_SCENES",
	ChannelStateResult:   "CHANNEL_STATE_RESULT",
	DeviceConfigResult:   "DEVICE_CONFIG_RESULT",
}

func (id ID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return "UNKNOWN"
}

// Event is one queued notification with its positional payload.
type Event struct {
	ID   ID
	Args []any
}

// ErrClosed is returned by Pop once a closed queue has drained.
var ErrClosed = errors.New("event queue closed")

// Queue is an unbounded FIFO. Push never blocks; Pop waits for the next
// event. One queue is bound to each connected entity plus one global
// server queue.
type Queue struct {
	mu     sync.Mutex
	items  []Event
	closed bool

	notify chan struct{}
}

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends an event. Pushes after Close are dropped.
func (q *Queue) Push(id ID, args ...any) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, Event{ID: id, Args: args})
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest event, waiting if the queue is
// empty. Returns ErrClosed once the queue is closed and drained.
func (q *Queue) Pop(ctx context.Context) (Event, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			event := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return event, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return Event{}, ErrClosed
		}
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-q.notify:
		}
	}
}

// Close stops the queue. Queued events remain poppable until drained.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len reports the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Handler processes one dispatched event. The subject is whatever the
// dispatching worker is bound to, typically a connection.
type Handler[S any] func(ctx context.Context, subject S, event Event) error

type scopeKey struct {
	scope Scope
	id    ID
}

// Registry is the immutable (scope, id) → handlers table built once at
// startup.
type Registry[S any] struct {
	handlers map[scopeKey][]Handler[S]
}

// Builder accumulates handler bindings for a Registry.
type Builder[S any] struct {
	handlers map[scopeKey][]Handler[S]
}

func NewBuilder[S any]() *Builder[S] {
	return &Builder[S]{handlers: make(map[scopeKey][]Handler[S])}
}

// On binds a handler; handlers for the same (scope, id) run in
// registration order.
func (b *Builder[S]) On(scope Scope, id ID, h Handler[S]) *Builder[S] {
	key := scopeKey{scope: scope, id: id}
	b.handlers[key] = append(b.handlers[key], h)
	return b
}

func (b *Builder[S]) Build() *Registry[S] {
	handlers := make(map[scopeKey][]Handler[S], len(b.handlers))
	for key, hs := range b.handlers {
		handlers[key] = append([]Handler[S](nil), hs...)
	}
	return &Registry[S]{handlers: handlers}
}

// Dispatch invokes every handler bound to (scope, event.ID) in order.
// Handler errors are logged and do not stop the remaining handlers.
func (r *Registry[S]) Dispatch(ctx context.Context, scope Scope, subject S, event Event) {
	for _, h := range r.handlers[scopeKey{scope: scope, id: event.ID}] {
		if err := h(ctx, subject, event); err != nil {
			logger.Error("event handler failed",
				logger.Event(event.ID.String()),
				logger.Scope(scope.String()),
				logger.Err(err))
		}
	}
}
