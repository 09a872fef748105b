package model

import "time"

// CursorPosition is a container-relative pointer position, expressed as
// percentages (0-100) of the bounding container so cursors render correctly
// across differently sized viewports.
type CursorPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Participant is one connected client within a collaboration session. ID is
// stable across reconnects of the same identity so presence updates coalesce
// rather than duplicate.
type Participant struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"displayName"`
	Color       string          `json:"color"`
	Cursor      *CursorPosition `json:"cursor,omitempty"`
	ConnectedAt time.Time       `json:"connectedAt"`
}

// SharedPalette is the palette under collaborative view. Colors must carry
// exactly eleven entries whenever broadcast; receivers drop anything else.
type SharedPalette struct {
	Colors  []string      `json:"colors"`
	Keyword string        `json:"keyword"`
	Source  PaletteSource `json:"source"`
}

// Valid reports whether the palette carries exactly the fixed slot count.
func (p SharedPalette) Valid() bool {
	return len(p.Colors) == 11
}

// Clone returns a deep copy so receivers never alias a broadcast payload.
func (p SharedPalette) Clone() SharedPalette {
	colors := make([]string, len(p.Colors))
	copy(colors, p.Colors)
	return SharedPalette{Colors: colors, Keyword: p.Keyword, Source: p.Source}
}
