package collab

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/model"
)

// Session is the client-side facade over one joined collaboration session:
// a connection plus the presence registry, cursor channel and palette sync
// wired to it. All inbound callbacks arrive on the connection's dispatch
// goroutine.
type Session struct {
	conn     Conn
	registry *Registry
	cursor   *CursorChannel
	palette  *PaletteSync

	syncedOnce sync.Once
	synced     chan struct{}

	unsubs []func()
}

// Join connects to a session and wires up the collaboration channels. The
// returned session is not synced yet; callers should surface a connecting
// state until Synced is closed by the first presence snapshot.
func Join(ctx context.Context, transport Transport, sessionID string, identity model.Participant) (*Session, error) {
	conn, err := transport.Connect(ctx, sessionID, identity)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry(identity.ID)

	s := &Session{
		conn:     conn,
		registry: registry,
		cursor:   NewCursorChannel(conn, registry),
		palette:  NewPaletteSync(conn),
		synced:   make(chan struct{}),
	}

	s.unsubs = append(s.unsubs,
		conn.Subscribe(EventState, s.handleState),
		conn.Subscribe(EventPresenceSync, s.handlePresenceSync),
	)

	return s, nil
}

func (s *Session) handleState(msg Message) {
	snapshot, err := DecodeStateSnapshot(msg.Data)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring malformed state snapshot")
		return
	}

	s.registry.ApplySnapshot(snapshot.Participants)
	if snapshot.CurrentPalette != nil && snapshot.CurrentPalette.Valid() {
		s.palette.adoptBase(*snapshot.CurrentPalette)
	}
	s.markSynced()
}

func (s *Session) handlePresenceSync(msg Message) {
	snapshot, err := DecodePresenceSync(msg.Data)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring malformed presence snapshot")
		return
	}
	s.registry.ApplySnapshot(snapshot.Participants)
	s.markSynced()
}

func (s *Session) markSynced() {
	s.syncedOnce.Do(func() { close(s.synced) })
}

// Synced is closed after the first presence snapshot arrives.
func (s *Session) Synced() <-chan struct{} {
	return s.synced
}

// Identity returns the local participant.
func (s *Session) Identity() model.Participant {
	return s.conn.Identity()
}

// Registry exposes the live roster.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Cursor exposes the cursor broadcast channel.
func (s *Session) Cursor() *CursorChannel {
	return s.cursor
}

// Palette exposes the palette sync channel.
func (s *Session) Palette() *PaletteSync {
	return s.palette
}

// Done is closed when the underlying connection is torn down.
func (s *Session) Done() <-chan struct{} {
	return s.conn.Done()
}

// Leave tears the session down. Safe to call multiple times; no callback
// fires after it returns.
func (s *Session) Leave() error {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.cursor.Close()
	s.palette.Close()
	s.registry.Stop()
	return s.conn.Close()
}
