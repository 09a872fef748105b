package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huehive/collab-server-go/internal/collab"
	"github.com/huehive/collab-server-go/internal/model"
	"github.com/huehive/collab-server-go/internal/redis"
)

// These tests require a running Redis instance and are skipped otherwise.
// DB 15 is used so a flush cannot touch real data.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()

	client, err := redis.NewClient("redis://localhost:6379/15")
	if err != nil {
		t.Skip("Redis not available for testing")
	}
	client.FlushDB(context.Background())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func participant(id string) model.Participant {
	return model.Participant{
		ID:          id,
		DisplayName: id,
		Color:       "#3B82F6",
		ConnectedAt: time.Now(),
	}
}

func elevenColors() []string {
	return []string{
		"#1A1A2E", "#16213E", "#0F3460", "#533483", "#E94560", "#F5F5F5",
		"#FFD700", "#2ECC71", "#3498DB", "#E67E22", "#9B59B6",
	}
}

func TestBrokerFanOut(t *testing.T) {
	rdb := testRedis(t)

	a, err := NewTransport(rdb).Connect(context.Background(), "studio", participant("u1"))
	require.NoError(t, err)
	defer a.Close()

	b, err := NewTransport(rdb).Connect(context.Background(), "studio", participant("u2"))
	require.NoError(t, err)
	defer b.Close()

	got := make(chan collab.Message, 1)
	b.Subscribe(collab.EventPaletteUpdated, func(msg collab.Message) { got <- msg })

	echo := make(chan collab.Message, 1)
	a.Subscribe(collab.EventPaletteUpdated, func(msg collab.Message) { echo <- msg })

	payload := collab.PaletteUpdated{
		Palette:   model.SharedPalette{Colors: elevenColors(), Keyword: "noir", Source: model.PaletteSourceAI},
		UpdatedBy: "u1",
	}
	require.NoError(t, a.Publish(collab.EventPaletteUpdate, payload))

	select {
	case msg := <-got:
		decoded, err := collab.DecodePaletteUpdated(msg.Data)
		require.NoError(t, err)
		assert.Equal(t, "u1", msg.Sender)
		assert.Equal(t, elevenColors(), decoded.Palette.Colors)
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast never arrived")
	}

	select {
	case <-echo:
		t.Fatal("publisher must not receive its own broadcast")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBrokerRejectsShortPalette(t *testing.T) {
	rdb := testRedis(t)

	a, err := NewTransport(rdb).Connect(context.Background(), "studio", participant("u1"))
	require.NoError(t, err)
	defer a.Close()

	bad := collab.PaletteUpdated{
		Palette: model.SharedPalette{Colors: elevenColors()[:9]},
	}
	err = a.Publish(collab.EventPaletteUpdate, bad)
	assert.Error(t, err, "with no relay in the path the producer validates")
}

func TestBrokerPresenceRoster(t *testing.T) {
	rdb := testRedis(t)

	a, err := NewTransport(rdb).Connect(context.Background(), "studio", participant("u1"))
	require.NoError(t, err)
	defer a.Close()

	joined := make(chan collab.Message, 1)
	a.Subscribe(collab.EventUserJoined, func(msg collab.Message) { joined <- msg })

	b, err := NewTransport(rdb).Connect(context.Background(), "studio", participant("u2"))
	require.NoError(t, err)

	select {
	case msg := <-joined:
		assert.Equal(t, "u2", msg.Sender)
	case <-time.After(2 * time.Second):
		t.Fatal("join announcement never arrived")
	}

	left := make(chan collab.Message, 1)
	a.Subscribe(collab.EventUserLeft, func(msg collab.Message) { left <- msg })

	require.NoError(t, b.Close())

	select {
	case <-left:
	case <-time.After(2 * time.Second):
		t.Fatal("leave announcement never arrived")
	}
}

func TestBrokerConnectIdempotent(t *testing.T) {
	rdb := testRedis(t)

	transport := NewTransport(rdb)
	conn1, err := transport.Connect(context.Background(), "studio", participant("u1"))
	require.NoError(t, err)
	defer conn1.Close()

	conn2, err := transport.Connect(context.Background(), "studio", participant("u1"))
	require.NoError(t, err)
	assert.Same(t, conn1, conn2)
}
