package collab

import (
	"sync"
	"time"

	apperrors "github.com/huehive/collab-server-go/internal/errors"
	"github.com/huehive/collab-server-go/internal/model"
)

// Room is the relay-side state of one session: the connected participants
// and the palette the session last converged on. It exists only while
// clients are connected; nothing here is durable.
type Room struct {
	mu           sync.Mutex
	id           string
	participants map[string]*model.Participant
	palette      *model.SharedPalette
}

func NewRoom(id string) *Room {
	return &Room{
		id:           id,
		participants: make(map[string]*model.Participant),
	}
}

func (r *Room) ID() string {
	return r.id
}

// Join registers a participant and returns the snapshot the joiner receives:
// the full roster (joiner included) and the current palette. Rejoining with
// the same id coalesces into the existing record.
func (r *Room) Join(p model.Participant) StateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ConnectedAt.IsZero() {
		p.ConnectedAt = time.Now()
	}
	if existing, ok := r.participants[p.ID]; ok {
		// Same identity reconnecting; keep the original connect time.
		p.ConnectedAt = existing.ConnectedAt
	}
	joined := p
	r.participants[p.ID] = &joined

	return StateSnapshot{
		Participants:   r.rosterLocked(),
		CurrentPalette: r.paletteLocked(),
	}
}

// Leave removes a participant. Returns true when the id was present.
func (r *Room) Leave(participantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.participants[participantID]; !ok {
		return false
	}
	delete(r.participants, participantID)
	return true
}

// SetCursor records a participant's last cursor position.
func (r *Room) SetCursor(participantID string, pos model.CursorPosition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.participants[participantID]; ok {
		cursor := pos
		p.Cursor = &cursor
	}
}

// SetPalette replaces the room palette wholesale. Payloads without exactly
// eleven colors are rejected and leave the room palette untouched.
func (r *Room) SetPalette(palette model.SharedPalette) error {
	if !palette.Valid() {
		return apperrors.InvalidPalettePayload(len(palette.Colors))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	applied := palette.Clone()
	r.palette = &applied
	return nil
}

// Roster returns the current participants.
func (r *Room) Roster() []model.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rosterLocked()
}

// Palette returns the room palette, nil until the first sync.
func (r *Room) Palette() *model.SharedPalette {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paletteLocked()
}

// Empty reports whether the last participant has left. The hub tears empty
// rooms down; room state is derived entirely from connected clients.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants) == 0
}

func (r *Room) rosterLocked() []model.Participant {
	roster := make([]model.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		roster = append(roster, *p)
	}
	return roster
}

func (r *Room) paletteLocked() *model.SharedPalette {
	if r.palette == nil {
		return nil
	}
	p := r.palette.Clone()
	return &p
}
