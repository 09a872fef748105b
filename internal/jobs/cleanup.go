package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/redis"
	"github.com/huehive/collab-server-go/internal/repository"
)

// CleanupJob prunes what expiry alone cannot: redis hash fields have no TTL
// of their own, so presence entries whose heartbeat key expired linger until
// this sweep removes them, and palette versions orphaned by a deleted
// palette are dropped from postgres.
type CleanupJob struct {
	rdb         *redis.Client
	versionRepo repository.PaletteVersionRepository
	interval    time.Duration
	done        chan struct{}
}

func NewCleanupJob(
	rdb *redis.Client,
	versionRepo repository.PaletteVersionRepository,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		rdb:         rdb,
		versionRepo: versionRepo,
		interval:    interval,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if j.rdb != nil {
		j.cleanupPresence(ctx)
	}
	if j.versionRepo != nil {
		if count, err := j.versionRepo.DeleteOrphaned(ctx); err != nil {
			log.Error().Err(err).Msg("cleanup: orphaned palette versions")
		} else if count > 0 {
			log.Info().Int64("count", count).Msg("cleaned up orphaned palette versions")
		}
	}
}

// cleanupPresence walks every announced session and removes participants
// whose heartbeat key is gone. Sessions left empty drop out of the index.
func (j *CleanupJob) cleanupPresence(ctx context.Context) {
	sessions, err := j.rdb.SMembers(ctx, redis.SessionIndexKey()).Result()
	if err != nil {
		log.Error().Err(err).Msg("cleanup: session index read")
		return
	}

	var pruned int64
	for _, sessionID := range sessions {
		fields, err := j.rdb.HKeys(ctx, redis.PresenceKey(sessionID)).Result()
		if err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("cleanup: presence read")
			continue
		}

		remaining := len(fields)
		for _, participantID := range fields {
			alive, err := j.rdb.Exists(ctx, redis.HeartbeatKey(sessionID, participantID)).Result()
			if err != nil || alive > 0 {
				continue
			}
			if err := j.rdb.HDel(ctx, redis.PresenceKey(sessionID), participantID).Err(); err != nil {
				log.Error().Err(err).Str("sessionId", sessionID).Msg("cleanup: presence prune")
				continue
			}
			pruned++
			remaining--
		}

		if remaining == 0 {
			_ = j.rdb.SRem(ctx, redis.SessionIndexKey(), sessionID).Err()
		}
	}

	if pruned > 0 {
		log.Info().Int64("count", pruned).Msg("cleaned up stale presence entries")
	}
}
