package collab

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// joinTestSession joins the shared test session over the in-memory network
// and registers cleanup.
func joinTestSession(t *testing.T, network *MemoryNetwork, id string) *Session {
	t.Helper()

	session, err := Join(context.Background(), network.Transport(), "test-session", participant(id))
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Leave() })
	return session
}

func waitSynced(t *testing.T, s *Session) {
	t.Helper()

	select {
	case <-s.Synced():
	case <-time.After(time.Second):
		t.Fatal("session never received a presence snapshot")
	}
}

func testPalette(colors ...string) []string {
	if len(colors) > 0 {
		return colors
	}
	return []string{
		"#111111", "#222222", "#333333", "#444444", "#555555", "#666666",
		"#777777", "#888888", "#999999", "#AAAAAA", "#BBBBBB",
	}
}
