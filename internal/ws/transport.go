package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/collab"
	apperrors "github.com/huehive/collab-server-go/internal/errors"
	"github.com/huehive/collab-server-go/internal/model"
)

const (
	dialTimeout        = 10 * time.Second
	reconnectBaseDelay = 500 * time.Millisecond
	reconnectMaxDelay  = 30 * time.Second
)

// DialTransport connects to a remote relay server over websocket. One
// transport maps to one client identity; Connect is idempotent per session
// while the connection is alive.
type DialTransport struct {
	baseURL string
	token   string

	mu      sync.Mutex
	current *dialConn
}

// NewDialTransport builds a transport for a relay at baseURL, e.g.
// "ws://localhost:8080". token is optional and forwarded for authenticated
// identities.
func NewDialTransport(baseURL, token string) *DialTransport {
	return &DialTransport{baseURL: baseURL, token: token}
}

func (t *DialTransport) Connect(ctx context.Context, sessionID string, identity model.Participant) (collab.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && !t.current.closed() && t.current.sessionID == sessionID {
		return t.current, nil
	}

	conn := &dialConn{
		transport:  t,
		sessionID:  sessionID,
		identity:   identity,
		handlers:   collab.NewHandlerSet(),
		dispatcher: collab.NewDispatcher(),
		done:       make(chan struct{}),
	}
	if err := conn.dial(ctx); err != nil {
		conn.dispatcher.Stop()
		return nil, err
	}
	go conn.readLoop()

	t.current = conn
	return conn, nil
}

func (t *DialTransport) endpoint(sessionID string, identity model.Participant) (string, error) {
	u, err := url.Parse(t.baseURL)
	if err != nil {
		return "", apperrors.Connection("invalid relay url", err)
	}
	u.Path = fmt.Sprintf("/v1/collab/%s", sessionID)

	q := u.Query()
	q.Set("participantId", identity.ID)
	q.Set("displayName", identity.DisplayName)
	q.Set("color", identity.Color)
	if t.token != "" {
		q.Set("token", t.token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type dialConn struct {
	transport  *DialTransport
	sessionID  string
	identity   model.Participant
	handlers   *collab.HandlerSet
	dispatcher *collab.Dispatcher
	done       chan struct{}
	closeOnce  sync.Once

	sockMu sync.Mutex
	sock   *websocket.Conn
}

func (c *dialConn) dial(ctx context.Context) error {
	endpoint, err := c.transport.endpoint(c.sessionID, c.identity)
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	sock, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	if err != nil {
		return apperrors.Connection("relay unreachable", err)
	}

	c.sockMu.Lock()
	c.sock = sock
	c.sockMu.Unlock()
	return nil
}

func (c *dialConn) SessionID() string {
	return c.sessionID
}

func (c *dialConn) Identity() model.Participant {
	return c.identity
}

func (c *dialConn) Subscribe(event string, h collab.Handler) func() {
	return c.handlers.Add(event, h)
}

// Publish writes the message to the relay. Messages sent while a reconnect is
// in progress fail with a CONNECTION_ERROR and are not retried.
func (c *dialConn) Publish(event string, payload any) error {
	msg, err := collab.Encode(event, c.identity.ID, payload)
	if err != nil {
		return err
	}

	c.sockMu.Lock()
	defer c.sockMu.Unlock()

	if c.sock == nil {
		return apperrors.Connection("not connected", nil)
	}
	_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.sock.WriteJSON(msg); err != nil {
		return apperrors.Connection("write failed", err)
	}
	return nil
}

func (c *dialConn) Done() <-chan struct{} {
	return c.done
}

func (c *dialConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.dispatcher.Stop()

		c.sockMu.Lock()
		if c.sock != nil {
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.sock.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = c.sock.Close()
		}
		c.sockMu.Unlock()
	})
	return nil
}

func (c *dialConn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// readLoop reads frames and dispatches them. On read failure it redials with
// exponential backoff, keeping the same identity; frames missed while
// disconnected are gone, the relay resends full state on rejoin.
func (c *dialConn) readLoop() {
	for {
		c.sockMu.Lock()
		sock := c.sock
		c.sockMu.Unlock()

		if sock == nil {
			return
		}

		sock.SetReadLimit(maxMessageSize)
		_ = sock.SetReadDeadline(time.Now().Add(pongWait))
		sock.SetPingHandler(func(appData string) error {
			_ = sock.SetReadDeadline(time.Now().Add(pongWait))
			// Pongs go out on the read goroutine while Publish writes from
			// callers; WriteControl is the one write method safe for that.
			return sock.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		})

		for {
			_, raw, err := sock.ReadMessage()
			if err != nil {
				break
			}

			var msg collab.Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			if msg.Sender == c.identity.ID {
				// The relay does not echo to the sender; drop any stray self frame.
				continue
			}
			c.dispatcher.Dispatch(func() {
				for _, h := range c.handlers.Get(msg.Event) {
					h(msg)
				}
			})
		}

		if c.closed() {
			return
		}
		if !c.redial() {
			return
		}
	}
}

func (c *dialConn) redial() bool {
	delay := reconnectBaseDelay
	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		if err := c.dial(context.Background()); err == nil {
			log.Info().
				Str("sessionId", c.sessionID).
				Str("participantId", c.identity.ID).
				Msg("relay reconnected")
			return true
		}

		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
		log.Warn().
			Str("sessionId", c.sessionID).
			Dur("nextRetryIn", delay).
			Msg("relay reconnect failed")
	}
}
