package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/collab"
	"github.com/huehive/collab-server-go/internal/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Per-client outbound buffer. A slow reader that falls this far behind
	// gets disconnected rather than stalling the whole session.
	sendBufferSize = 256
)

// Client is one websocket connection attached to the hub. Messages flow out
// through a buffered channel so the hub never blocks on a slow socket.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	sessionID   string
	participant model.Participant
	outbound    chan collab.Message
	done        chan struct{}
	stop        sync.Once
}

// NewClient wraps an upgraded websocket connection. Serve must be called to
// start the pumps.
func NewClient(hub *Hub, conn *websocket.Conn, sessionID string, participant model.Participant) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		sessionID:   sessionID,
		participant: participant,
		outbound:    make(chan collab.Message, sendBufferSize),
		done:        make(chan struct{}),
	}
}

// Serve registers the client and runs the read pump until the peer goes away.
// The write pump runs on its own goroutine. Serve returns after the client is
// fully unregistered.
func (c *Client) Serve() {
	c.hub.Register(c)
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.shutdown()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).
					Str("participantId", c.participant.ID).
					Msg("websocket read error")
			}
			return
		}

		var msg collab.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Debug().Err(err).
				Str("participantId", c.participant.ID).
				Msg("dropping unparseable frame")
			continue
		}
		c.hub.Relay(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.outbound:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// deliver queues a message for the peer, dropping it when the buffer is full
// or the client is shutting down.
func (c *Client) deliver(msg collab.Message) {
	select {
	case <-c.done:
	case c.outbound <- msg:
	default:
		log.Warn().
			Str("participantId", c.participant.ID).
			Str("event", msg.Event).
			Msg("outbound buffer full, dropping frame")
	}
}

func (c *Client) send(event, sender string, payload any) {
	msg, err := collab.Encode(event, sender, payload)
	if err != nil {
		return
	}
	c.deliver(msg)
}

func (c *Client) shutdown() {
	c.stop.Do(func() { close(c.done) })
}
