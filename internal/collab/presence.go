package collab

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/config"
	"github.com/huehive/collab-server-go/internal/model"
)

// Registry maintains the eventually-consistent roster of a session's
// participants, derived from full-roster snapshots. A participant id moves
// through absent -> present -> pending-removal -> absent (grace timer fires)
// or back to present (reappears before expiry). The grace period absorbs
// transient resubscribe flicker without flashing the roster.
type Registry struct {
	mu           sync.Mutex
	selfID       string
	grace        time.Duration
	participants map[string]*model.Participant
	pending      map[string]*time.Timer
	stopped      bool

	// dispatch routes timer callbacks onto the owning event loop. Defaults
	// to direct invocation.
	dispatch func(fn func())

	onJoin  []func(model.Participant)
	onLeave []func(participantID string)
}

func NewRegistry(selfID string) *Registry {
	return &Registry{
		selfID:       selfID,
		grace:        config.PresenceGracePeriod,
		participants: make(map[string]*model.Participant),
		pending:      make(map[string]*time.Timer),
		dispatch:     func(fn func()) { fn() },
	}
}

// SetGrace overrides the removal grace period. Zero removes departures
// immediately.
func (r *Registry) SetGrace(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grace = d
}

// SetDispatch routes deferred removals through the given event loop.
func (r *Registry) SetDispatch(dispatch func(fn func())) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatch = dispatch
}

// OnJoin registers a listener fired when a participant first appears.
func (r *Registry) OnJoin(fn func(model.Participant)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onJoin = append(r.onJoin, fn)
}

// OnLeave registers a listener fired when a departure becomes visible,
// after the grace period.
func (r *Registry) OnLeave(fn func(participantID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLeave = append(r.onLeave, fn)
}

// ApplySnapshot reconciles the registry against a full-roster snapshot.
// Present ids are upserted, preserving any live cursor the snapshot does not
// carry. Missing ids are not removed immediately; removal is scheduled after
// the grace period and cancelled if the id reappears.
func (r *Registry) ApplySnapshot(participants []model.Participant) {
	r.mu.Lock()

	seen := make(map[string]bool, len(participants))
	var joined []model.Participant

	for _, p := range participants {
		if p.ID == "" || p.ID == r.selfID {
			continue
		}
		seen[p.ID] = true

		if timer, ok := r.pending[p.ID]; ok {
			timer.Stop()
			delete(r.pending, p.ID)
		}

		if existing, ok := r.participants[p.ID]; ok {
			cursor := existing.Cursor
			updated := p
			if updated.Cursor == nil {
				updated.Cursor = cursor
			}
			*existing = updated
			continue
		}

		added := p
		r.participants[p.ID] = &added
		joined = append(joined, added)
	}

	var left []string
	for id := range r.participants {
		if seen[id] || r.pending[id] != nil {
			continue
		}
		if r.grace <= 0 {
			delete(r.participants, id)
			left = append(left, id)
			continue
		}
		r.scheduleRemovalLocked(id)
	}

	joinFns := r.onJoin
	leaveFns := r.onLeave
	r.mu.Unlock()

	for _, p := range joined {
		for _, fn := range joinFns {
			fn(p)
		}
	}
	for _, id := range left {
		for _, fn := range leaveFns {
			fn(id)
		}
	}
}

func (r *Registry) scheduleRemovalLocked(id string) {
	r.pending[id] = time.AfterFunc(r.grace, func() {
		r.dispatch(func() {
			r.expire(id)
		})
	})
}

func (r *Registry) expire(id string) {
	r.mu.Lock()

	if r.stopped {
		r.mu.Unlock()
		return
	}
	// Reappearance cancels the timer, but a stopped timer can already be
	// in flight; re-check before removing.
	if _, ok := r.pending[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.participants, id)
	delete(r.pending, id)
	leaveFns := r.onLeave
	r.mu.Unlock()

	log.Debug().Str("participantId", id).Msg("presence grace period expired")
	for _, fn := range leaveFns {
		fn(id)
	}
}

// SetCursor updates a tracked participant's live cursor. Unknown ids are
// ignored; a cursor event is not an announcement.
func (r *Registry) SetCursor(id string, pos model.CursorPosition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.participants[id]; ok {
		cursor := pos
		p.Cursor = &cursor
	}
}

// Roster returns the externally visible participants, ordered by connect
// time. The local participant never appears. Ids in pending-removal are
// still included until their grace timer fires.
func (r *Registry) Roster() []model.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	roster := make([]model.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		roster = append(roster, *p)
	}
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].ConnectedAt.Equal(roster[j].ConnectedAt) {
			return roster[i].ID < roster[j].ID
		}
		return roster[i].ConnectedAt.Before(roster[j].ConnectedAt)
	})
	return roster
}

// Get returns a tracked participant by id.
func (r *Registry) Get(id string) (model.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.participants[id]; ok {
		return *p, true
	}
	return model.Participant{}, false
}

// Stop cancels all pending removal timers.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	for id, timer := range r.pending {
		timer.Stop()
		delete(r.pending, id)
	}
}
