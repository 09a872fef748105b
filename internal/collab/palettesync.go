package collab

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/config"
	apperrors "github.com/huehive/collab-server-go/internal/errors"
	"github.com/huehive/collab-server-go/internal/model"
)

// PaletteSync broadcasts wholesale palette replacements and transient
// color-selection pings. There is no ownership or merge: the last received
// palette wins, and every receiver replaces its base palette entirely.
//
// An uncommitted local edit (one slot being adjusted) is layered on top of
// whatever base is currently synced, so a remote update never clobbers the
// edit in progress.
type PaletteSync struct {
	mu      sync.Mutex
	conn    Conn
	base    *model.SharedPalette
	edits   map[int]string // slot index -> uncommitted color
	pingTTL time.Duration

	selections map[string]*selectionPing

	// dispatch routes expiry timers onto the owning event loop.
	dispatch func(fn func())

	onPalette   []func(model.SharedPalette, string)
	onSelection []func(participantID, color string)

	unsubs []func()
}

type selectionPing struct {
	color string
	seq   uint64
}

func NewPaletteSync(conn Conn) *PaletteSync {
	s := &PaletteSync{
		conn:       conn,
		edits:      make(map[int]string),
		pingTTL:    config.SelectionPingTTL,
		selections: make(map[string]*selectionPing),
		dispatch:   func(fn func()) { fn() },
	}
	s.unsubs = append(s.unsubs,
		conn.Subscribe(EventPaletteUpdated, s.handlePaletteUpdated),
		conn.Subscribe(EventColorSelected, s.handleColorSelected),
	)
	return s
}

// SetPingTTL overrides the selection ping lifetime.
func (s *PaletteSync) SetPingTTL(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingTTL = d
}

// SetDispatch routes ping expiry through the given event loop.
func (s *PaletteSync) SetDispatch(dispatch func(fn func())) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatch = dispatch
}

// OnPaletteUpdated registers a listener fired after the base palette is
// replaced by a remote broadcast.
func (s *PaletteSync) OnPaletteUpdated(fn func(palette model.SharedPalette, updatedBy string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPalette = append(s.onPalette, fn)
}

// OnColorSelected registers a listener fired when a selection ping lands.
func (s *PaletteSync) OnColorSelected(fn func(participantID, color string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSelection = append(s.onSelection, fn)
}

// PublishPaletteUpdate broadcasts a full palette replacement and applies it
// locally. Payloads without exactly eleven colors are rejected.
func (s *PaletteSync) PublishPaletteUpdate(palette model.SharedPalette) error {
	if !palette.Valid() {
		return apperrors.InvalidPalettePayload(len(palette.Colors))
	}

	s.mu.Lock()
	applied := palette.Clone()
	s.base = &applied
	s.mu.Unlock()

	payload := PaletteUpdated{
		Palette:   palette.Clone(),
		UpdatedBy: s.conn.Identity().ID,
	}
	return s.conn.Publish(EventPaletteUpdate, payload)
}

// PublishColorSelected broadcasts a transient selection ping for a color the
// local participant clicked or copied.
func (s *PaletteSync) PublishColorSelected(color string) error {
	payload := ColorSelected{
		ParticipantID: s.conn.Identity().ID,
		Color:         color,
	}
	return s.conn.Publish(EventColorSelect, payload)
}

func (s *PaletteSync) handlePaletteUpdated(msg Message) {
	payload, err := DecodePaletteUpdated(msg.Data)
	if err != nil {
		// Strict rejection: never pad, never partially apply.
		log.Warn().Err(err).Msg("discarding invalid palette broadcast")
		return
	}
	if payload.UpdatedBy == s.conn.Identity().ID {
		return
	}

	s.mu.Lock()
	applied := payload.Palette.Clone()
	s.base = &applied
	listeners := s.onPalette
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(applied.Clone(), payload.UpdatedBy)
	}
}

func (s *PaletteSync) handleColorSelected(msg Message) {
	payload, err := DecodeColorSelected(msg.Data)
	if err != nil {
		log.Debug().Err(err).Msg("ignoring malformed selection event")
		return
	}
	if payload.ParticipantID == s.conn.Identity().ID {
		return
	}

	s.mu.Lock()
	ping, ok := s.selections[payload.ParticipantID]
	if !ok {
		ping = &selectionPing{}
		s.selections[payload.ParticipantID] = ping
	}
	ping.color = payload.Color
	ping.seq++
	seq := ping.seq
	ttl := s.pingTTL
	listeners := s.onSelection
	s.mu.Unlock()

	// A newer ping for the same participant resets the clock; the stale
	// timer notices the sequence moved on and leaves it alone.
	time.AfterFunc(ttl, func() {
		s.dispatch(func() {
			s.expireSelection(payload.ParticipantID, seq)
		})
	})

	for _, fn := range listeners {
		fn(payload.ParticipantID, payload.Color)
	}
}

func (s *PaletteSync) expireSelection(participantID string, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ping, ok := s.selections[participantID]; ok && ping.seq == seq {
		delete(s.selections, participantID)
	}
}

// Selections returns the live selection pings keyed by participant id.
func (s *PaletteSync) Selections() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.selections))
	for id, ping := range s.selections {
		out[id] = ping.color
	}
	return out
}

// adoptBase installs a palette received in a connect-time state snapshot
// without rebroadcasting it.
func (s *PaletteSync) adoptBase(palette model.SharedPalette) {
	if !palette.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := palette.Clone()
	s.base = &applied
}

// Palette returns the current base palette, nil before the first sync.
func (s *PaletteSync) Palette() *model.SharedPalette {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base == nil {
		return nil
	}
	p := s.base.Clone()
	return &p
}

// SetLocalEdit stages an uncommitted color for one slot. The edit survives
// remote palette replacements until committed or cleared.
func (s *PaletteSync) SetLocalEdit(slot int, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits[slot] = color
}

// ClearLocalEdit discards the staged color for a slot.
func (s *PaletteSync) ClearLocalEdit(slot int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edits, slot)
}

// CommitLocalEdits folds the staged edits into the base palette and
// broadcasts the result.
func (s *PaletteSync) CommitLocalEdits() error {
	s.mu.Lock()
	if s.base == nil || len(s.edits) == 0 {
		s.mu.Unlock()
		return nil
	}
	merged := s.base.Clone()
	for slot, color := range s.edits {
		if slot >= 0 && slot < len(merged.Colors) {
			merged.Colors[slot] = color
		}
	}
	s.edits = make(map[int]string)
	s.mu.Unlock()

	return s.PublishPaletteUpdate(merged)
}

// EffectiveColors is the base palette with the uncommitted edits layered on
// top; what the local view renders.
func (s *PaletteSync) EffectiveColors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.base == nil {
		return nil
	}
	colors := make([]string, len(s.base.Colors))
	copy(colors, s.base.Colors)
	for slot, color := range s.edits {
		if slot >= 0 && slot < len(colors) {
			colors[slot] = color
		}
	}
	return colors
}

// Close detaches the channel from the connection.
func (s *PaletteSync) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
}
