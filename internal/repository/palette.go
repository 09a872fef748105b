package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/huehive/collab-server-go/internal/model"
)

type PaletteRepository interface {
	FindByID(ctx context.Context, id string) (*model.Palette, error)
	FindByUserID(ctx context.Context, userID string) ([]model.Palette, error)
	Create(ctx context.Context, params model.CreatePaletteParams) (*model.Palette, error)
	Update(ctx context.Context, id string, params model.UpdatePaletteParams) (*model.Palette, error)
	Delete(ctx context.Context, id, userID string) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) PaletteRepository
}

type paletteRepo struct {
	db sqlxDB
}

func NewPaletteRepository(db *sqlx.DB) PaletteRepository {
	return &paletteRepo{db: db}
}

func (r *paletteRepo) WithTx(tx *sqlx.Tx) PaletteRepository {
	return &paletteRepo{db: tx}
}

func (r *paletteRepo) FindByID(ctx context.Context, id string) (*model.Palette, error) {
	var palette model.Palette
	err := r.db.GetContext(ctx, &palette, `
		SELECT * FROM palettes WHERE id = $1
	`, id)
	return HandleNotFound(&palette, err)
}

func (r *paletteRepo) FindByUserID(ctx context.Context, userID string) ([]model.Palette, error) {
	var palettes []model.Palette
	err := r.db.SelectContext(ctx, &palettes, `
		SELECT * FROM palettes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return palettes, nil
}

func (r *paletteRepo) Create(ctx context.Context, params model.CreatePaletteParams) (*model.Palette, error) {
	var palette model.Palette
	err := r.db.GetContext(ctx, &palette, `
		INSERT INTO palettes (user_id, name, description, colors, keywords, is_ai_generated, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, false)
		RETURNING *
	`, params.UserID, params.Name, params.Description,
		pq.StringArray(params.Colors), pq.StringArray(params.Keywords), params.IsAIGenerated)
	if err != nil {
		return nil, err
	}
	return &palette, nil
}

func (r *paletteRepo) Update(ctx context.Context, id string, params model.UpdatePaletteParams) (*model.Palette, error) {
	var palette model.Palette
	err := r.db.GetContext(ctx, &palette, `
		UPDATE palettes SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			colors = COALESCE($4, colors),
			keywords = COALESCE($5, keywords),
			updated_at = $6
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Description,
		nullableArray(params.Colors), nullableArray(params.Keywords), time.Now())
	return HandleNotFound(&palette, err)
}

func (r *paletteRepo) Delete(ctx context.Context, id, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM palettes WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// nullableArray maps a nil slice to SQL NULL so COALESCE keeps the stored value.
func nullableArray(values []string) interface{} {
	if values == nil {
		return nil
	}
	return pq.StringArray(values)
}
