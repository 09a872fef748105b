package collab

import (
	"context"
	"sync"

	"github.com/huehive/collab-server-go/internal/model"
)

// Handler is invoked once per matching inbound message. Handlers run on the
// connection's dispatch goroutine and must not block. They also must not
// tear the connection down: Close waits for the running callback to finish,
// so a handler calling it deadlocks. Hand teardown to another goroutine.
type Handler func(msg Message)

// Conn is one logical connection to a session. Implementations deliver
// messages from a single sender in publish order; there is no cross-sender
// ordering guarantee.
type Conn interface {
	SessionID() string
	Identity() model.Participant

	// Subscribe registers a handler for an event name. Multiple handlers per
	// name are supported; the returned func removes only this handler.
	Subscribe(event string, h Handler) (unsubscribe func())

	// Publish is fire-and-forget: no delivery acknowledgment, and the
	// publisher's own handlers never observe the message.
	Publish(event string, payload any) error

	// Done is closed when the connection is torn down.
	Done() <-chan struct{}

	// Close is idempotent. Once it returns no handler fires again, even for
	// messages already in flight; those are dropped silently.
	Close() error
}

// Transport establishes logical channels to sessions. Connect is idempotent
// per transport instance: connecting to a session while already connected
// returns the existing connection. An unreachable transport yields a
// CONNECTION_ERROR AppError; callers should treat it as retryable.
type Transport interface {
	Connect(ctx context.Context, sessionID string, identity model.Participant) (Conn, error)
}

// HandlerSet is the subscription table shared by the Conn implementations.
type HandlerSet struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]Handler
}

func NewHandlerSet() *HandlerSet {
	return &HandlerSet{handlers: make(map[string]map[int]Handler)}
}

func (s *HandlerSet) Add(event string, h Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	if s.handlers[event] == nil {
		s.handlers[event] = make(map[int]Handler)
	}
	s.handlers[event][id] = h

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers[event], id)
	}
}

func (s *HandlerSet) Get(event string) []Handler {
	s.mu.Lock()
	defer s.mu.Unlock()

	hs := make([]Handler, 0, len(s.handlers[event]))
	for _, h := range s.handlers[event] {
		hs = append(hs, h)
	}
	return hs
}

// Dispatcher serializes all callback invocation onto one goroutine, the Go
// analogue of the client event loop the channels assume. Stop is synchronous:
// once it returns, no further callback runs.
type Dispatcher struct {
	mu      sync.Mutex
	queue   chan func()
	stopped bool
	done    chan struct{}
}

func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		queue: make(chan func(), 256),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	for {
		select {
		case <-d.done:
			return
		case fn := <-d.queue:
			d.mu.Lock()
			if d.stopped {
				d.mu.Unlock()
				return
			}
			fn()
			d.mu.Unlock()
		}
	}
}

// Dispatch enqueues fn; it is dropped when the queue is saturated or the
// dispatcher already stopped. Cursor traffic tolerates dropped frames.
func (d *Dispatcher) Dispatch(fn func()) {
	select {
	case <-d.done:
	case d.queue <- fn:
	default:
	}
}

// Stop blocks until any in-flight callback completes, then prevents all
// further invocation. Must not be called from inside a dispatched callback;
// it would wait on itself.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.done)
	}
	d.mu.Unlock()
}
