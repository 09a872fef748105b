package collab

import (
	"context"
	"sync"

	apperrors "github.com/huehive/collab-server-go/internal/errors"
	"github.com/huehive/collab-server-go/internal/model"
)

// MemoryNetwork is an in-process realization of the relay: rooms, fan-out
// and presence snapshots without any sockets. It backs the package tests and
// doubles as a single-process fallback when no transport infrastructure is
// reachable.
type MemoryNetwork struct {
	mu    sync.Mutex
	rooms map[string]*memoryRoom
}

type memoryRoom struct {
	room  *Room
	conns map[*memoryConn]bool
}

func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{rooms: make(map[string]*memoryRoom)}
}

// Transport returns a per-client Transport handle onto the network. Each
// client owns its own handle so Connect idempotence is scoped per client.
func (n *MemoryNetwork) Transport() Transport {
	return &memoryTransport{network: n}
}

type memoryTransport struct {
	network *MemoryNetwork

	mu      sync.Mutex
	current *memoryConn
}

func (t *memoryTransport) Connect(ctx context.Context, sessionID string, identity model.Participant) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Connection("transport unreachable", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && !t.current.closed() && t.current.sessionID == sessionID {
		return t.current, nil
	}

	conn := &memoryConn{
		transport:  t,
		sessionID:  sessionID,
		identity:   identity,
		handlers:   NewHandlerSet(),
		dispatcher: NewDispatcher(),
		done:       make(chan struct{}),
	}
	t.network.join(sessionID, conn)
	t.current = conn
	return conn, nil
}

type memoryConn struct {
	transport  *memoryTransport
	sessionID  string
	identity   model.Participant
	handlers   *HandlerSet
	dispatcher *Dispatcher
	done       chan struct{}
	closeOnce  sync.Once
}

func (c *memoryConn) SessionID() string {
	return c.sessionID
}

func (c *memoryConn) Identity() model.Participant {
	return c.identity
}

func (c *memoryConn) Subscribe(event string, h Handler) func() {
	return c.handlers.Add(event, h)
}

func (c *memoryConn) Publish(event string, payload any) error {
	msg, err := Encode(event, c.identity.ID, payload)
	if err != nil {
		return err
	}
	c.transport.network.relay(c, msg)
	return nil
}

func (c *memoryConn) Done() <-chan struct{} {
	return c.done
}

func (c *memoryConn) Close() error {
	c.closeOnce.Do(func() {
		c.transport.network.leave(c)
		c.dispatcher.Stop()
		close(c.done)
	})
	return nil
}

func (c *memoryConn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// deliver hands a message to this connection's handlers on its dispatch
// goroutine, preserving per-sender order.
func (c *memoryConn) deliver(msg Message) {
	c.dispatcher.Dispatch(func() {
		for _, h := range c.handlers.Get(msg.Event) {
			h(msg)
		}
	})
}

func (n *MemoryNetwork) join(sessionID string, conn *memoryConn) {
	n.mu.Lock()
	mr, ok := n.rooms[sessionID]
	if !ok {
		mr = &memoryRoom{room: NewRoom(sessionID), conns: make(map[*memoryConn]bool)}
		n.rooms[sessionID] = mr
	}
	mr.conns[conn] = true
	snapshot := mr.room.Join(conn.identity)
	others := mr.others(conn)
	n.mu.Unlock()

	if msg, err := Encode(EventState, "", snapshot); err == nil {
		conn.deliver(msg)
	}
	n.broadcast(others, EventUserJoined, "", UserJoined{Participant: conn.identity})
	n.broadcast(others, EventPresenceSync, "", PresenceSync{Participants: snapshot.Participants})
}

func (n *MemoryNetwork) leave(conn *memoryConn) {
	n.mu.Lock()
	mr, ok := n.rooms[conn.sessionID]
	if !ok {
		n.mu.Unlock()
		return
	}
	delete(mr.conns, conn)
	mr.room.Leave(conn.identity.ID)
	others := mr.others(nil)
	roster := mr.room.Roster()
	if len(mr.conns) == 0 {
		delete(n.rooms, conn.sessionID)
	}
	n.mu.Unlock()

	n.broadcast(others, EventUserLeft, "", UserLeft{ParticipantID: conn.identity.ID})
	n.broadcast(others, EventPresenceSync, "", PresenceSync{Participants: roster})
}

// relay applies relay-side state updates and fans the message out to every
// other connection under its broadcast name. The sender never hears its own
// message back.
func (n *MemoryNetwork) relay(sender *memoryConn, msg Message) {
	n.mu.Lock()
	mr, ok := n.rooms[sender.sessionID]
	if !ok {
		n.mu.Unlock()
		return
	}

	switch msg.Event {
	case EventCursorMove:
		if payload, err := DecodeCursorMoved(msg.Data); err == nil {
			mr.room.SetCursor(sender.identity.ID, model.CursorPosition{X: payload.X, Y: payload.Y})
		}
	case EventPaletteUpdate:
		payload, err := DecodePaletteUpdated(msg.Data)
		if err != nil {
			// Invalid palettes stop at the relay.
			n.mu.Unlock()
			return
		}
		_ = mr.room.SetPalette(payload.Palette)
	}

	targets := mr.others(sender)
	n.mu.Unlock()

	out := msg
	out.Event = BroadcastName(msg.Event)
	for _, target := range targets {
		target.deliver(out)
	}
}

func (n *MemoryNetwork) broadcast(targets []*memoryConn, event, sender string, payload any) {
	msg, err := Encode(event, sender, payload)
	if err != nil {
		return
	}
	for _, target := range targets {
		target.deliver(msg)
	}
}

// others returns every connection except skip. Caller holds n.mu.
func (mr *memoryRoom) others(skip *memoryConn) []*memoryConn {
	out := make([]*memoryConn, 0, len(mr.conns))
	for conn := range mr.conns {
		if conn != skip {
			out = append(out, conn)
		}
	}
	return out
}
