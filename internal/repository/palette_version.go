package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/huehive/collab-server-go/internal/model"
)

type PaletteVersionRepository interface {
	FindByPaletteID(ctx context.Context, paletteID string) ([]model.PaletteVersion, error)
	MaxVersionNumber(ctx context.Context, paletteID string) (int, error)
	Create(ctx context.Context, params model.CreateVersionParams) (*model.PaletteVersion, error)
	DeleteOrphaned(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) PaletteVersionRepository
}

type paletteVersionRepo struct {
	db sqlxDB
}

func NewPaletteVersionRepository(db *sqlx.DB) PaletteVersionRepository {
	return &paletteVersionRepo{db: db}
}

func (r *paletteVersionRepo) WithTx(tx *sqlx.Tx) PaletteVersionRepository {
	return &paletteVersionRepo{db: tx}
}

func (r *paletteVersionRepo) FindByPaletteID(ctx context.Context, paletteID string) ([]model.PaletteVersion, error) {
	var versions []model.PaletteVersion
	err := r.db.SelectContext(ctx, &versions, `
		SELECT * FROM palette_versions
		WHERE palette_id = $1
		ORDER BY version_number DESC
	`, paletteID)
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *paletteVersionRepo) MaxVersionNumber(ctx context.Context, paletteID string) (int, error) {
	var max int
	err := r.db.GetContext(ctx, &max, `
		SELECT COALESCE(MAX(version_number), 0) FROM palette_versions
		WHERE palette_id = $1
	`, paletteID)
	return max, err
}

func (r *paletteVersionRepo) Create(ctx context.Context, params model.CreateVersionParams) (*model.PaletteVersion, error) {
	var version model.PaletteVersion
	err := r.db.GetContext(ctx, &version, `
		INSERT INTO palette_versions (palette_id, version_number, colors, description)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.PaletteID, params.VersionNumber, pq.StringArray(params.Colors), params.Description)
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *paletteVersionRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM palette_versions v
		WHERE NOT EXISTS (SELECT 1 FROM palettes p WHERE p.id = v.palette_id)
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
