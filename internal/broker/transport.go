// Package broker realizes the session transport on redis pub/sub. There is
// no relay process: every client publishes broadcast events straight onto the
// session channel and announces its own presence in a redis hash guarded by a
// per-participant heartbeat key. It trades the relay's central validation for
// zero extra infrastructure; both realizations satisfy the same contract.
package broker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/collab"
	apperrors "github.com/huehive/collab-server-go/internal/errors"
	"github.com/huehive/collab-server-go/internal/model"
	"github.com/huehive/collab-server-go/internal/redis"
)

const (
	heartbeatTTL      = 15 * time.Second
	heartbeatInterval = 5 * time.Second
)

// Transport connects sessions through redis. One instance maps to one client
// identity, mirroring the dialing websocket transport.
type Transport struct {
	rdb *redis.Client

	mu      sync.Mutex
	current *conn
}

func NewTransport(rdb *redis.Client) *Transport {
	return &Transport{rdb: rdb}
}

func (t *Transport) Connect(ctx context.Context, sessionID string, identity model.Participant) (collab.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil && !t.current.isClosed() && t.current.sessionID == sessionID {
		return t.current, nil
	}

	c := &conn{
		rdb:        t.rdb,
		sessionID:  sessionID,
		identity:   identity,
		handlers:   collab.NewHandlerSet(),
		dispatcher: collab.NewDispatcher(),
		done:       make(chan struct{}),
	}

	if err := c.announce(ctx); err != nil {
		c.dispatcher.Stop()
		return nil, err
	}

	c.pubsub = t.rdb.Subscribe(ctx, redis.SessionChannel(sessionID))
	// Wait for the subscription so no broadcast slips past the join.
	if _, err := c.pubsub.Receive(ctx); err != nil {
		_ = c.pubsub.Close()
		c.dispatcher.Stop()
		return nil, apperrors.Connection("subscribe failed", err)
	}

	go c.readLoop()
	go c.heartbeatLoop()

	// Announce after subscribing: the joiner itself filters its own events.
	c.broadcastJoin(ctx)

	t.current = c
	return c, nil
}

type conn struct {
	rdb        *redis.Client
	sessionID  string
	identity   model.Participant
	handlers   *collab.HandlerSet
	dispatcher *collab.Dispatcher
	pubsub     *goredis.PubSub
	done       chan struct{}
	closeOnce  sync.Once
}

func (c *conn) SessionID() string {
	return c.sessionID
}

func (c *conn) Identity() model.Participant {
	return c.identity
}

func (c *conn) Subscribe(event string, h collab.Handler) func() {
	return c.handlers.Add(event, h)
}

// Publish renames the event to its broadcast form before it hits the channel;
// with no relay in the path the rename happens at the producer.
func (c *conn) Publish(event string, payload any) error {
	// Palette payloads are validated here because nothing downstream will.
	if event == collab.EventPaletteUpdate {
		msg, err := collab.Encode(event, c.identity.ID, payload)
		if err != nil {
			return err
		}
		if _, err := collab.DecodePaletteUpdated(msg.Data); err != nil {
			return err
		}
	}

	msg, err := collab.Encode(collab.BroadcastName(event), c.identity.ID, payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.rdb.Publish(ctx, redis.SessionChannel(c.sessionID), raw).Err(); err != nil {
		return apperrors.Connection("publish failed", err)
	}
	return nil
}

func (c *conn) Done() <-chan struct{} {
	return c.done
}

func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.dispatcher.Stop()
		_ = c.pubsub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.withdraw(ctx)
	})
	return nil
}

func (c *conn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// announce writes this participant into the session's presence hash and arms
// its heartbeat.
func (c *conn) announce(ctx context.Context) error {
	raw, err := json.Marshal(c.identity)
	if err != nil {
		return err
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, redis.PresenceKey(c.sessionID), c.identity.ID, raw)
	pipe.Set(ctx, redis.HeartbeatKey(c.sessionID, c.identity.ID), "1", heartbeatTTL)
	pipe.SAdd(ctx, redis.SessionIndexKey(), c.sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.Connection("presence announce failed", err)
	}
	return nil
}

func (c *conn) withdraw(ctx context.Context) {
	pipe := c.rdb.TxPipeline()
	pipe.HDel(ctx, redis.PresenceKey(c.sessionID), c.identity.ID)
	pipe.Del(ctx, redis.HeartbeatKey(c.sessionID, c.identity.ID))
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).
			Str("sessionId", c.sessionID).
			Msg("presence withdraw failed")
	}

	c.publishSystem(ctx, collab.EventUserLeft, collab.UserLeft{ParticipantID: c.identity.ID})
	if roster, err := c.roster(ctx); err == nil {
		c.publishSystem(ctx, collab.EventPresenceSync, collab.PresenceSync{Participants: roster})
	}
}

func (c *conn) broadcastJoin(ctx context.Context) {
	c.publishSystem(ctx, collab.EventUserJoined, collab.UserJoined{Participant: c.identity})

	roster, err := c.roster(ctx)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", c.sessionID).Msg("roster read failed")
		return
	}
	c.publishSystem(ctx, collab.EventPresenceSync, collab.PresenceSync{Participants: roster})

	// Deliver the state snapshot locally, the way the relay greets a joiner.
	snapshot := collab.StateSnapshot{Participants: roster}
	if msg, err := collab.Encode(collab.EventState, "", snapshot); err == nil {
		c.deliver(msg)
	}
}

func (c *conn) publishSystem(ctx context.Context, event string, payload any) {
	msg, err := collab.Encode(event, c.identity.ID, payload)
	if err != nil {
		return
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.rdb.Publish(ctx, redis.SessionChannel(c.sessionID), raw).Err(); err != nil {
		log.Warn().Err(err).
			Str("sessionId", c.sessionID).
			Str("event", event).
			Msg("system event publish failed")
	}
}

// roster reads the presence hash, dropping entries whose heartbeat expired.
// The cleanup job removes those stale fields for good.
func (c *conn) roster(ctx context.Context) ([]model.Participant, error) {
	fields, err := c.rdb.HGetAll(ctx, redis.PresenceKey(c.sessionID)).Result()
	if err != nil {
		return nil, apperrors.Connection("presence read failed", err)
	}

	roster := make([]model.Participant, 0, len(fields))
	for id, raw := range fields {
		alive, err := c.rdb.Exists(ctx, redis.HeartbeatKey(c.sessionID, id)).Result()
		if err != nil || alive == 0 {
			continue
		}
		var p model.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			continue
		}
		roster = append(roster, p)
	}
	return roster, nil
}

func (c *conn) readLoop() {
	ch := c.pubsub.Channel()
	for {
		select {
		case <-c.done:
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}

			var msg collab.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				continue
			}
			if msg.Sender == c.identity.ID {
				continue
			}
			c.deliver(msg)
		}
	}
}

func (c *conn) deliver(msg collab.Message) {
	c.dispatcher.Dispatch(func() {
		for _, h := range c.handlers.Get(msg.Event) {
			h(msg)
		}
	})
}

func (c *conn) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := c.rdb.Set(ctx, redis.HeartbeatKey(c.sessionID, c.identity.ID), "1", heartbeatTTL).Err()
			cancel()
			if err != nil {
				log.Warn().Err(err).
					Str("sessionId", c.sessionID).
					Msg("heartbeat refresh failed")
			}
		}
	}
}
