package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// SessionChannel is the pub/sub channel carrying a session's broadcast events.
func SessionChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:events", sessionID)
}

// PresenceKey is the hash holding a session's announced participants,
// field = participant id, value = announcement JSON.
func PresenceKey(sessionID string) string {
	return fmt.Sprintf("session:%s:presence", sessionID)
}

// HeartbeatKey is the per-participant liveness key. It expires on its own;
// the cleanup job prunes presence hash fields whose heartbeat is gone.
func HeartbeatKey(sessionID, participantID string) string {
	return fmt.Sprintf("session:%s:alive:%s", sessionID, participantID)
}

// SessionIndexKey is the set of session ids that have announced presence.
func SessionIndexKey() string {
	return "sessions:active"
}
