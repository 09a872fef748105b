package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/config"
	"github.com/huehive/collab-server-go/internal/database"
	apperrors "github.com/huehive/collab-server-go/internal/errors"
	"github.com/huehive/collab-server-go/internal/model"
	"github.com/huehive/collab-server-go/internal/repository"
	"github.com/huehive/collab-server-go/internal/util"
)

// PaletteService handles saved palettes and their version history. Every
// mutation checks ownership: an unknown id is NOT_FOUND, someone else's
// palette is FORBIDDEN.
type PaletteService struct {
	db          *database.DB
	paletteRepo repository.PaletteRepository
	versionRepo repository.PaletteVersionRepository
}

func NewPaletteService(
	db *database.DB,
	paletteRepo repository.PaletteRepository,
	versionRepo repository.PaletteVersionRepository,
) *PaletteService {
	return &PaletteService{
		db:          db,
		paletteRepo: paletteRepo,
		versionRepo: versionRepo,
	}
}

type SavePaletteInput struct {
	Name          string
	Description   *string
	Colors        []string
	Keywords      []string
	IsAIGenerated bool
}

type UpdatePaletteInput struct {
	Name        *string
	Description *string
	Colors      []string
	Keywords    []string
}

// Save stores a new palette for the user and records version 1.
func (s *PaletteService) Save(ctx context.Context, userID string, input SavePaletteInput) (*model.Palette, error) {
	if err := validatePaletteInput(input.Name, input.Colors); err != nil {
		return nil, err
	}

	var palette *model.Palette
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		palette, err = s.paletteRepo.WithTx(tx).Create(ctx, model.CreatePaletteParams{
			UserID:        userID,
			Name:          strings.TrimSpace(input.Name),
			Description:   input.Description,
			Colors:        input.Colors,
			Keywords:      input.Keywords,
			IsAIGenerated: input.IsAIGenerated,
		})
		if err != nil {
			return fmt.Errorf("create palette: %w", err)
		}

		_, err = s.versionRepo.WithTx(tx).Create(ctx, model.CreateVersionParams{
			PaletteID:     palette.ID,
			VersionNumber: 1,
			Colors:        input.Colors,
			Description:   input.Description,
		})
		if err != nil {
			return fmt.Errorf("create initial version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Database("save palette", err)
	}

	log.Info().
		Str("paletteId", palette.ID).
		Str("userId", userID).
		Msg("palette saved")
	return palette, nil
}

// Get returns a palette the user may read: their own or a public one.
func (s *PaletteService) Get(ctx context.Context, id, userID string) (*model.Palette, error) {
	palette, err := s.paletteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database("find palette", err)
	}
	if palette == nil {
		return nil, apperrors.NotFound("palette")
	}
	if palette.UserID != userID && !palette.IsPublic {
		return nil, apperrors.Forbidden("palette belongs to another user")
	}
	return palette, nil
}

// List returns the user's palettes, newest first.
func (s *PaletteService) List(ctx context.Context, userID string) ([]model.Palette, error) {
	palettes, err := s.paletteRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database("list palettes", err)
	}
	return palettes, nil
}

// Update edits a palette the user owns. A color change appends a new version
// in the same transaction.
func (s *PaletteService) Update(ctx context.Context, id, userID string, input UpdatePaletteInput) (*model.Palette, error) {
	if input.Colors != nil {
		if err := validateColors(input.Colors); err != nil {
			return nil, err
		}
	}

	existing, err := s.paletteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database("find palette", err)
	}
	if existing == nil {
		return nil, apperrors.NotFound("palette")
	}
	if existing.UserID != userID {
		return nil, apperrors.Forbidden("palette belongs to another user")
	}

	var updated *model.Palette
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		updated, err = s.paletteRepo.WithTx(tx).Update(ctx, id, model.UpdatePaletteParams{
			Name:        input.Name,
			Description: input.Description,
			Colors:      input.Colors,
			Keywords:    input.Keywords,
		})
		if err != nil {
			return fmt.Errorf("update palette: %w", err)
		}
		if updated == nil {
			return apperrors.NotFound("palette")
		}

		if input.Colors != nil {
			versions := s.versionRepo.WithTx(tx)
			max, err := versions.MaxVersionNumber(ctx, id)
			if err != nil {
				return fmt.Errorf("max version: %w", err)
			}
			_, err = versions.Create(ctx, model.CreateVersionParams{
				PaletteID:     id,
				VersionNumber: max + 1,
				Colors:        input.Colors,
				Description:   input.Description,
			})
			if err != nil {
				return fmt.Errorf("create version: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Database("update palette", err)
	}

	log.Info().
		Str("paletteId", id).
		Str("userId", userID).
		Bool("colorsChanged", input.Colors != nil).
		Msg("palette updated")
	return updated, nil
}

// Delete removes a palette the user owns. Version rows are pruned by the
// cleanup job.
func (s *PaletteService) Delete(ctx context.Context, id, userID string) error {
	existing, err := s.paletteRepo.FindByID(ctx, id)
	if err != nil {
		return apperrors.Database("find palette", err)
	}
	if existing == nil {
		return apperrors.NotFound("palette")
	}
	if existing.UserID != userID {
		return apperrors.Forbidden("palette belongs to another user")
	}

	affected, err := s.paletteRepo.Delete(ctx, id, userID)
	if err != nil {
		return apperrors.Database("delete palette", err)
	}
	if affected == 0 {
		return apperrors.NotFound("palette")
	}

	log.Info().
		Str("paletteId", id).
		Str("userId", userID).
		Msg("palette deleted")
	return nil
}

// Versions lists a palette's history, newest first. Read access follows the
// same rule as Get.
func (s *PaletteService) Versions(ctx context.Context, id, userID string) ([]model.PaletteVersion, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}

	versions, err := s.versionRepo.FindByPaletteID(ctx, id)
	if err != nil {
		return nil, apperrors.Database("list versions", err)
	}
	return versions, nil
}

// SnapshotVersion appends the palette's current colors as a new version
// without changing the palette itself.
func (s *PaletteService) SnapshotVersion(ctx context.Context, id, userID string, description *string) (*model.PaletteVersion, error) {
	existing, err := s.paletteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database("find palette", err)
	}
	if existing == nil {
		return nil, apperrors.NotFound("palette")
	}
	if existing.UserID != userID {
		return nil, apperrors.Forbidden("palette belongs to another user")
	}

	var version *model.PaletteVersion
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		versions := s.versionRepo.WithTx(tx)
		max, err := versions.MaxVersionNumber(ctx, id)
		if err != nil {
			return fmt.Errorf("max version: %w", err)
		}
		version, err = versions.Create(ctx, model.CreateVersionParams{
			PaletteID:     id,
			VersionNumber: max + 1,
			Colors:        existing.Colors,
			Description:   description,
		})
		if err != nil {
			return fmt.Errorf("create version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Database("snapshot version", err)
	}
	return version, nil
}

func validatePaletteInput(name string, colors []string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.MissingRequired("name")
	}
	return validateColors(colors)
}

func validateColors(colors []string) error {
	if len(colors) != config.PaletteSize {
		return apperrors.InvalidPalettePayload(len(colors))
	}
	for _, color := range colors {
		if !util.IsHexColor(color) {
			return apperrors.InvalidInput(fmt.Sprintf("invalid hex color %q", color))
		}
	}
	return nil
}
