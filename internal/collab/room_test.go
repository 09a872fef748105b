package collab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huehive/collab-server-go/internal/model"
)

func TestRoomJoinSnapshot(t *testing.T) {
	room := NewRoom("studio")

	room.Join(participant("u1"))
	snapshot := room.Join(participant("u2"))

	assert.Len(t, snapshot.Participants, 2)
	assert.Nil(t, snapshot.CurrentPalette)
}

func TestRoomReconnectCoalesces(t *testing.T) {
	room := NewRoom("studio")

	first := participant("u1")
	first.ConnectedAt = time.Now().Add(-time.Minute)
	room.Join(first)

	again := participant("u1")
	room.Join(again)

	roster := room.Roster()
	require.Len(t, roster, 1, "same identity must coalesce, not duplicate")
	assert.Equal(t, first.ConnectedAt.Unix(), roster[0].ConnectedAt.Unix(), "original connect time is kept")
}

func TestRoomSetPaletteValidation(t *testing.T) {
	room := NewRoom("studio")

	err := room.SetPalette(model.SharedPalette{Colors: testPalette()[:9]})
	assert.Error(t, err)
	assert.Nil(t, room.Palette())

	require.NoError(t, room.SetPalette(model.SharedPalette{Colors: testPalette(), Keyword: "ocean"}))
	got := room.Palette()
	require.NotNil(t, got)
	assert.Equal(t, "ocean", got.Keyword)
}

func TestRoomEmpty(t *testing.T) {
	room := NewRoom("studio")
	assert.True(t, room.Empty())

	room.Join(participant("u1"))
	assert.False(t, room.Empty())

	assert.True(t, room.Leave("u1"))
	assert.False(t, room.Leave("u1"), "second leave is a no-op")
	assert.True(t, room.Empty())
}

func TestRoomCursorTracking(t *testing.T) {
	room := NewRoom("studio")
	room.Join(participant("u1"))

	room.SetCursor("u1", model.CursorPosition{X: 40, Y: 60})

	roster := room.Roster()
	require.Len(t, roster, 1)
	require.NotNil(t, roster[0].Cursor)
	assert.Equal(t, 40.0, roster[0].Cursor.X)
}
