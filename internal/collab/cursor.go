package collab

import (
	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/model"
)

// ContainerRect is the bounding box cursor positions are expressed against.
type ContainerRect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// RelativePosition converts an absolute pointer position into percentages
// (0-100) of the container, clamped to its bounds. Percentages render
// correctly across differently sized viewports.
func RelativePosition(clientX, clientY float64, rect ContainerRect) model.CursorPosition {
	return model.CursorPosition{
		X: clamp((clientX-rect.Left)/rect.Width*100, 0, 100),
		Y: clamp((clientY-rect.Top)/rect.Height*100, 0, 100),
	}
}

// AbsolutePosition renders a percentage position back into pixels against a
// (possibly different) container rect.
func AbsolutePosition(pos model.CursorPosition, rect ContainerRect) (x, y float64) {
	return rect.Left + pos.X/100*rect.Width, rect.Top + pos.Y/100*rect.Height
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CursorChannel relays the local pointer position to the other participants
// and feeds their positions into the registry. Best effort, no persistence.
type CursorChannel struct {
	conn     Conn
	registry *Registry
	unsub    func()
}

func NewCursorChannel(conn Conn, registry *Registry) *CursorChannel {
	c := &CursorChannel{conn: conn, registry: registry}
	c.unsub = conn.Subscribe(EventCursorUpdate, c.handleUpdate)
	return c
}

// PublishPosition broadcasts the local cursor. Callers should debounce to
// roughly one publish per animation frame; the transport does not queue.
func (c *CursorChannel) PublishPosition(pos model.CursorPosition) {
	payload := CursorMoved{
		ParticipantID: c.conn.Identity().ID,
		X:             pos.X,
		Y:             pos.Y,
	}
	if err := c.conn.Publish(EventCursorMove, payload); err != nil {
		log.Debug().Err(err).Msg("cursor publish dropped")
	}
}

func (c *CursorChannel) handleUpdate(msg Message) {
	payload, err := DecodeCursorMoved(msg.Data)
	if err != nil {
		log.Debug().Err(err).Msg("ignoring malformed cursor event")
		return
	}
	if payload.ParticipantID == c.conn.Identity().ID {
		return
	}
	c.registry.SetCursor(payload.ParticipantID, model.CursorPosition{X: payload.X, Y: payload.Y})
}

// Close stops feeding cursor updates into the registry.
func (c *CursorChannel) Close() {
	c.unsub()
}
