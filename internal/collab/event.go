package collab

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/huehive/collab-server-go/internal/errors"
	"github.com/huehive/collab-server-go/internal/model"
)

// Wire event names. Clients publish the *-move/-select/-update names; the
// relay fans each one out to the other subscribers under its broadcast name.
const (
	EventCursorMove     = "cursor-move"
	EventCursorUpdate   = "cursor-update"
	EventColorSelect    = "color-select"
	EventColorSelected  = "color-selected"
	EventPaletteUpdate  = "palette-update"
	EventPaletteUpdated = "palette-updated"

	EventPresenceSync = "presence-sync"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventState        = "collaboration-state"
)

// BroadcastName maps a published event name to the name receivers observe.
// Names without a mapping broadcast unchanged.
func BroadcastName(event string) string {
	switch event {
	case EventCursorMove:
		return EventCursorUpdate
	case EventColorSelect:
		return EventColorSelected
	case EventPaletteUpdate:
		return EventPaletteUpdated
	default:
		return event
	}
}

// Message is the transport envelope. Sender carries the publishing
// participant id so receivers can drop their own echoes.
type Message struct {
	Event  string          `json:"event"`
	Sender string          `json:"sender"`
	Data   json.RawMessage `json:"data"`
}

// CursorMoved is the payload of cursor-move / cursor-update events.
type CursorMoved struct {
	ParticipantID string  `json:"participantId"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
}

// ColorSelected is the payload of color-select / color-selected events.
type ColorSelected struct {
	ParticipantID string `json:"participantId"`
	Color         string `json:"color"`
}

// PaletteUpdated is the payload of palette-update / palette-updated events.
type PaletteUpdated struct {
	Palette   model.SharedPalette `json:"palette"`
	UpdatedBy string              `json:"updatedBy"`
}

// PresenceSync is a full-roster snapshot, delivered on every membership
// change. Never a diff.
type PresenceSync struct {
	Participants []model.Participant `json:"participants"`
}

// UserJoined announces a new participant to existing subscribers.
type UserJoined struct {
	Participant model.Participant `json:"participant"`
}

// UserLeft announces a departure.
type UserLeft struct {
	ParticipantID string `json:"participantId"`
}

// StateSnapshot is delivered once to a joining client: the current roster
// plus whatever palette the session converged on.
type StateSnapshot struct {
	Participants   []model.Participant  `json:"participants"`
	CurrentPalette *model.SharedPalette `json:"currentPalette,omitempty"`
}

// DecodeCursorMoved validates and decodes a cursor payload.
func DecodeCursorMoved(data json.RawMessage) (CursorMoved, error) {
	var payload CursorMoved
	if err := json.Unmarshal(data, &payload); err != nil {
		return CursorMoved{}, fmt.Errorf("decode cursor payload: %w", err)
	}
	if payload.ParticipantID == "" {
		return CursorMoved{}, fmt.Errorf("cursor payload missing participant id")
	}
	return payload, nil
}

// DecodeColorSelected validates and decodes a selection ping payload.
func DecodeColorSelected(data json.RawMessage) (ColorSelected, error) {
	var payload ColorSelected
	if err := json.Unmarshal(data, &payload); err != nil {
		return ColorSelected{}, fmt.Errorf("decode selection payload: %w", err)
	}
	if payload.ParticipantID == "" {
		return ColorSelected{}, fmt.Errorf("selection payload missing participant id")
	}
	return payload, nil
}

// DecodePaletteUpdated validates and decodes a palette broadcast. A payload
// without exactly eleven colors is rejected; callers discard it without
// touching local state.
func DecodePaletteUpdated(data json.RawMessage) (PaletteUpdated, error) {
	var payload PaletteUpdated
	if err := json.Unmarshal(data, &payload); err != nil {
		return PaletteUpdated{}, fmt.Errorf("decode palette payload: %w", err)
	}
	if !payload.Palette.Valid() {
		return PaletteUpdated{}, apperrors.InvalidPalettePayload(len(payload.Palette.Colors))
	}
	return payload, nil
}

// DecodePresenceSync decodes a roster snapshot.
func DecodePresenceSync(data json.RawMessage) (PresenceSync, error) {
	var payload PresenceSync
	if err := json.Unmarshal(data, &payload); err != nil {
		return PresenceSync{}, fmt.Errorf("decode presence snapshot: %w", err)
	}
	return payload, nil
}

// DecodeStateSnapshot decodes the connect-time state message.
func DecodeStateSnapshot(data json.RawMessage) (StateSnapshot, error) {
	var payload StateSnapshot
	if err := json.Unmarshal(data, &payload); err != nil {
		return StateSnapshot{}, fmt.Errorf("decode state snapshot: %w", err)
	}
	return payload, nil
}

// Encode marshals a payload into a transport envelope.
func Encode(event, sender string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Message{Event: event, Sender: sender, Data: data}, nil
}
