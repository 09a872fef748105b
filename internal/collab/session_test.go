package collab

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huehive/collab-server-go/internal/model"
)

func TestTwoClientScenario(t *testing.T) {
	network := NewMemoryNetwork()

	a := joinTestSession(t, network, "u1")
	b := joinTestSession(t, network, "u2")
	waitSynced(t, a)
	waitSynced(t, b)

	// Each side sees the other and never itself.
	require.Eventually(t, func() bool {
		_, ok := a.Registry().Get("u2")
		return ok
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := b.Registry().Get("u1")
		return ok
	}, time.Second, 5*time.Millisecond)
	_, ok := a.Registry().Get("u1")
	assert.False(t, ok)

	// A publishes eleven colors; B converges on exactly that sequence.
	palette := model.SharedPalette{Colors: testPalette(), Keyword: "sunset", Source: model.PaletteSourceAI}
	require.NoError(t, a.Palette().PublishPaletteUpdate(palette))

	require.Eventually(t, func() bool {
		p := b.Palette().Palette()
		return p != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, palette.Colors, b.Palette().Palette().Colors)

	// The publisher's own channel state matches what it sent.
	assert.Equal(t, palette.Colors, a.Palette().Palette().Colors)
}

func TestConnectIsIdempotent(t *testing.T) {
	network := NewMemoryNetwork()
	transport := network.Transport()

	conn1, err := transport.Connect(context.Background(), "studio", participant("u1"))
	require.NoError(t, err)
	conn2, err := transport.Connect(context.Background(), "studio", participant("u1"))
	require.NoError(t, err)

	assert.Same(t, conn1, conn2, "connecting while connected returns the existing handle")
	require.NoError(t, conn1.Close())

	conn3, err := transport.Connect(context.Background(), "studio", participant("u1"))
	require.NoError(t, err)
	assert.NotSame(t, conn1, conn3, "a closed handle is not reused")
	_ = conn3.Close()
}

func TestConnectFailsOnCancelledContext(t *testing.T) {
	network := NewMemoryNetwork()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := network.Transport().Connect(ctx, "studio", participant("u1"))
	assert.Error(t, err)
}

func TestNoCallbacksAfterLeave(t *testing.T) {
	network := NewMemoryNetwork()

	a := joinTestSession(t, network, "u1")
	b := joinTestSession(t, network, "u2")
	waitSynced(t, a)
	waitSynced(t, b)

	var fired bool
	b.Palette().OnPaletteUpdated(func(model.SharedPalette, string) {
		fired = true
	})

	require.NoError(t, b.Leave())

	palette := model.SharedPalette{Colors: testPalette(), Keyword: "late", Source: model.PaletteSourceAI}
	require.NoError(t, a.Palette().PublishPaletteUpdate(palette))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired, "messages in flight after Leave are dropped silently")
}

func TestDepartureReachesRemainingClients(t *testing.T) {
	network := NewMemoryNetwork()

	a := joinTestSession(t, network, "u1")
	b := joinTestSession(t, network, "u2")
	waitSynced(t, a)
	waitSynced(t, b)

	a.Registry().SetGrace(20 * time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := a.Registry().Get("u2")
		return ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Leave())

	assert.Eventually(t, func() bool {
		_, ok := a.Registry().Get("u2")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestUnsubscribeLeavesOtherHandlersIntact(t *testing.T) {
	network := NewMemoryNetwork()
	transport := network.Transport()

	conn, err := transport.Connect(context.Background(), "studio", participant("u1"))
	require.NoError(t, err)
	defer conn.Close()

	other, err := network.Transport().Connect(context.Background(), "studio", participant("u2"))
	require.NoError(t, err)
	defer other.Close()

	got1 := make(chan struct{}, 4)
	got2 := make(chan struct{}, 4)
	unsub1 := conn.Subscribe(EventColorSelected, func(Message) { got1 <- struct{}{} })
	_ = unsub1
	conn.Subscribe(EventColorSelected, func(Message) { got2 <- struct{}{} })

	require.NoError(t, other.Publish(EventColorSelect, ColorSelected{ParticipantID: "u2", Color: "#111111"}))

	select {
	case <-got1:
	case <-time.After(time.Second):
		t.Fatal("first handler never fired")
	}
	select {
	case <-got2:
	case <-time.After(time.Second):
		t.Fatal("second handler never fired")
	}

	unsub1()
	require.NoError(t, other.Publish(EventColorSelect, ColorSelected{ParticipantID: "u2", Color: "#222222"}))

	select {
	case <-got2:
	case <-time.After(time.Second):
		t.Fatal("surviving handler must keep firing")
	}
	select {
	case <-got1:
		t.Fatal("unsubscribed handler fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublisherNeverHearsItself(t *testing.T) {
	network := NewMemoryNetwork()

	conn, err := network.Transport().Connect(context.Background(), "studio", participant("u1"))
	require.NoError(t, err)
	defer conn.Close()

	echo := make(chan struct{}, 1)
	conn.Subscribe(EventColorSelected, func(Message) { echo <- struct{}{} })

	require.NoError(t, conn.Publish(EventColorSelect, ColorSelected{ParticipantID: "u1", Color: "#111111"}))

	select {
	case <-echo:
		t.Fatal("publish must not echo back to the publisher")
	case <-time.After(50 * time.Millisecond):
	}
}
