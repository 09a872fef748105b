package collab

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huehive/collab-server-go/internal/model"
)

func TestRelativePosition(t *testing.T) {
	rect := ContainerRect{Left: 100, Top: 50, Width: 800, Height: 400}

	t.Run("converts pixels to percentages", func(t *testing.T) {
		pos := RelativePosition(500, 250, rect)
		assert.Equal(t, 50.0, pos.X)
		assert.Equal(t, 50.0, pos.Y)
	})

	t.Run("clamps positions outside the container", func(t *testing.T) {
		pos := RelativePosition(0, 9999, rect)
		assert.Equal(t, 0.0, pos.X)
		assert.Equal(t, 100.0, pos.Y)
	})
}

func TestPositionRoundTrip(t *testing.T) {
	rects := []ContainerRect{
		{Left: 0, Top: 0, Width: 100, Height: 100},
		{Left: 12, Top: 34, Width: 1440, Height: 900},
		{Left: 300, Top: 80, Width: 555, Height: 123},
	}

	points := [][2]float64{{0, 0}, {17, 93}, {50, 50}, {99, 1}}

	for _, rect := range rects {
		for _, pt := range points {
			clientX := rect.Left + pt[0]/100*rect.Width
			clientY := rect.Top + pt[1]/100*rect.Height

			pos := RelativePosition(clientX, clientY, rect)
			gotX, gotY := AbsolutePosition(pos, rect)

			assert.LessOrEqual(t, math.Abs(gotX-clientX), 1.0)
			assert.LessOrEqual(t, math.Abs(gotY-clientY), 1.0)
		}
	}
}

func TestCursorRendersAcrossViewports(t *testing.T) {
	// A's pointer at container-relative (40, 60) must land at 40%/60% of
	// B's own container, whatever its size.
	aRect := ContainerRect{Left: 0, Top: 0, Width: 1200, Height: 800}
	bRect := ContainerRect{Left: 20, Top: 10, Width: 375, Height: 667}

	pos := RelativePosition(480, 480, aRect)
	assert.Equal(t, 40.0, pos.X)
	assert.Equal(t, 60.0, pos.Y)

	x, y := AbsolutePosition(pos, bRect)
	assert.InDelta(t, bRect.Left+0.4*bRect.Width, x, 0.001)
	assert.InDelta(t, bRect.Top+0.6*bRect.Height, y, 0.001)
}

func TestCursorChannelUpdatesRegistry(t *testing.T) {
	network := NewMemoryNetwork()

	a := joinTestSession(t, network, "u1")
	b := joinTestSession(t, network, "u2")

	waitSynced(t, a)
	waitSynced(t, b)

	a.Cursor().PublishPosition(model.CursorPosition{X: 40, Y: 60})

	assert.Eventually(t, func() bool {
		p, ok := b.Registry().Get("u1")
		return ok && p.Cursor != nil && p.Cursor.X == 40 && p.Cursor.Y == 60
	}, time.Second, 5*time.Millisecond)

	// The publisher's own registry never tracks its own cursor.
	_, ok := a.Registry().Get("u1")
	assert.False(t, ok)
}

func TestParticipantWithoutCursorHasNilPosition(t *testing.T) {
	network := NewMemoryNetwork()

	a := joinTestSession(t, network, "u1")
	b := joinTestSession(t, network, "u2")
	waitSynced(t, a)
	waitSynced(t, b)

	require.Eventually(t, func() bool {
		_, ok := b.Registry().Get("u1")
		return ok
	}, time.Second, 5*time.Millisecond)

	p, _ := b.Registry().Get("u1")
	assert.Nil(t, p.Cursor, "absence of cursor events must leave the position unset, never at origin")
}
