package model

import (
	"time"

	"github.com/lib/pq"
)

// PaletteSource records how a palette came to be: generated by the language
// model or picked from the curated fallback set.
type PaletteSource string

const (
	PaletteSourceAI       PaletteSource = "ai"
	PaletteSourceFallback PaletteSource = "fallback"
)

// Palette is a saved palette record. Colors carry exactly eleven hex slots
// in fixed semantic order: primary, secondary, accent, four light-theme
// roles, four dark-theme roles.
type Palette struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"userId"`
	Name          string         `db:"name" json:"name"`
	Description   *string        `db:"description" json:"description,omitempty"`
	Colors        pq.StringArray `db:"colors" json:"colors"`
	Keywords      pq.StringArray `db:"keywords" json:"keywords"`
	IsAIGenerated bool           `db:"is_ai_generated" json:"isAiGenerated"`
	IsPublic      bool           `db:"is_public" json:"isPublic"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// PaletteVersion is one entry in a palette's ordered version history.
type PaletteVersion struct {
	ID            string         `db:"id" json:"id"`
	PaletteID     string         `db:"palette_id" json:"paletteId"`
	VersionNumber int            `db:"version_number" json:"versionNumber"`
	Colors        pq.StringArray `db:"colors" json:"colors"`
	Description   *string        `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}

type CreatePaletteParams struct {
	UserID        string
	Name          string
	Description   *string
	Colors        []string
	Keywords      []string
	IsAIGenerated bool
}

type UpdatePaletteParams struct {
	Name        *string
	Description *string
	Colors      []string
	Keywords    []string
}

type CreateVersionParams struct {
	PaletteID     string
	VersionNumber int
	Colors        []string
	Description   *string
}
