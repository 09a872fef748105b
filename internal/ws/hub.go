package ws

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/collab"
	"github.com/huehive/collab-server-go/internal/model"
)

// Hub owns the relay-side sessions: one room per session id, with fan-out to
// every connected client. Rooms appear when the first client subscribes and
// are torn down when the last one disconnects; nothing survives the sockets.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*hubRoom
}

type hubRoom struct {
	room    *collab.Room
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*hubRoom)}
}

// Register adds a client to its session, replies with the state snapshot and
// announces the arrival to everyone else.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	hr, ok := h.rooms[client.sessionID]
	if !ok {
		hr = &hubRoom{room: collab.NewRoom(client.sessionID), clients: make(map[*Client]bool)}
		h.rooms[client.sessionID] = hr
	}
	hr.clients[client] = true
	snapshot := hr.room.Join(client.participant)
	others := hr.others(client)
	clientCount := len(hr.clients)
	h.mu.Unlock()

	log.Info().
		Str("sessionId", client.sessionID).
		Str("participantId", client.participant.ID).
		Int("clientCount", clientCount).
		Msg("collab client joined")

	client.send(collab.EventState, "", snapshot)
	broadcast(others, collab.EventUserJoined, "", collab.UserJoined{Participant: client.participant})
	broadcast(others, collab.EventPresenceSync, "", collab.PresenceSync{Participants: snapshot.Participants})
}

// Unregister removes a client and announces the departure. Safe to call for
// a client that never registered.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	hr, ok := h.rooms[client.sessionID]
	if !ok || !hr.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(hr.clients, client)
	hr.room.Leave(client.participant.ID)
	others := hr.others(nil)
	roster := hr.room.Roster()
	if len(hr.clients) == 0 {
		delete(h.rooms, client.sessionID)
	}
	clientCount := len(hr.clients)
	h.mu.Unlock()

	log.Info().
		Str("sessionId", client.sessionID).
		Str("participantId", client.participant.ID).
		Int("clientCount", clientCount).
		Msg("collab client left")

	broadcast(others, collab.EventUserLeft, "", collab.UserLeft{ParticipantID: client.participant.ID})
	broadcast(others, collab.EventPresenceSync, "", collab.PresenceSync{Participants: roster})
}

// Relay applies a client message to the room and fans it out to the other
// clients under its broadcast name. Invalid palette payloads stop here.
func (h *Hub) Relay(sender *Client, msg collab.Message) {
	// The relay stamps the sender; clients cannot impersonate each other.
	msg.Sender = sender.participant.ID

	h.mu.Lock()
	hr, ok := h.rooms[sender.sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}

	switch msg.Event {
	case collab.EventCursorMove:
		if payload, err := collab.DecodeCursorMoved(msg.Data); err == nil {
			hr.room.SetCursor(sender.participant.ID, model.CursorPosition{X: payload.X, Y: payload.Y})
		}
	case collab.EventPaletteUpdate:
		payload, err := collab.DecodePaletteUpdated(msg.Data)
		if err != nil {
			h.mu.Unlock()
			log.Warn().Err(err).
				Str("participantId", sender.participant.ID).
				Msg("dropping invalid palette update")
			return
		}
		_ = hr.room.SetPalette(payload.Palette)
	case collab.EventColorSelect:
		if _, err := collab.DecodeColorSelected(msg.Data); err != nil {
			h.mu.Unlock()
			return
		}
	default:
		// Unknown events are not relayed.
		h.mu.Unlock()
		return
	}

	targets := hr.others(sender)
	h.mu.Unlock()

	msg.Event = collab.BroadcastName(msg.Event)
	for _, target := range targets {
		target.deliver(msg)
	}
}

// Roster returns the current roster of a session, empty when the session has
// no clients.
func (h *Hub) Roster(sessionID string) []model.Participant {
	h.mu.Lock()
	defer h.mu.Unlock()

	if hr, ok := h.rooms[sessionID]; ok {
		return hr.room.Roster()
	}
	return nil
}

// ClientCount reports the number of clients in a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if hr, ok := h.rooms[sessionID]; ok {
		return len(hr.clients)
	}
	return 0
}

// SessionCount reports the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Close tears down every client connection.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*Client
	for _, hr := range h.rooms {
		for client := range hr.clients {
			all = append(all, client)
		}
	}
	h.rooms = make(map[string]*hubRoom)
	h.mu.Unlock()

	for _, client := range all {
		client.shutdown()
	}
}

func (hr *hubRoom) others(skip *Client) []*Client {
	out := make([]*Client, 0, len(hr.clients))
	for client := range hr.clients {
		if client != skip {
			out = append(out, client)
		}
	}
	return out
}

func broadcast(targets []*Client, event, sender string, payload any) {
	msg, err := collab.Encode(event, sender, payload)
	if err != nil {
		return
	}
	for _, target := range targets {
		target.deliver(msg)
	}
}
