package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/huehive/collab-server-go/internal/model"
	"github.com/huehive/collab-server-go/internal/repository"
)

type mockVersionRepo struct {
	deleteOrphanedCalls atomic.Int64
	deleteOrphanedCount int64
}

func (m *mockVersionRepo) FindByPaletteID(ctx context.Context, paletteID string) ([]model.PaletteVersion, error) {
	return nil, nil
}

func (m *mockVersionRepo) MaxVersionNumber(ctx context.Context, paletteID string) (int, error) {
	return 0, nil
}

func (m *mockVersionRepo) Create(ctx context.Context, params model.CreateVersionParams) (*model.PaletteVersion, error) {
	return nil, nil
}

func (m *mockVersionRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	m.deleteOrphanedCalls.Add(1)
	return m.deleteOrphanedCount, nil
}

func (m *mockVersionRepo) WithTx(tx *sqlx.Tx) repository.PaletteVersionRepository {
	return m
}

func TestCleanupJobRunsImmediately(t *testing.T) {
	repo := &mockVersionRepo{deleteOrphanedCount: 3}
	job := NewCleanupJob(nil, repo, time.Hour)

	job.Start()
	defer job.Stop()

	assert.Eventually(t, func() bool {
		return repo.deleteOrphanedCalls.Load() >= 1
	}, time.Second, 10*time.Millisecond, "first sweep happens on start, not after the first tick")
}

func TestCleanupJobStops(t *testing.T) {
	repo := &mockVersionRepo{}
	job := NewCleanupJob(nil, repo, 10*time.Millisecond)

	job.Start()
	assert.Eventually(t, func() bool {
		return repo.deleteOrphanedCalls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	job.Stop()
	calls := repo.deleteOrphanedCalls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, repo.deleteOrphanedCalls.Load(), calls+1, "no sweeps keep running after Stop")
}
