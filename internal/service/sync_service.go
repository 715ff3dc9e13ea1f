package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"posture-service/internal/models"
	"posture-service/internal/repository/clickhouse"
	"posture-service/internal/repository/postgres"
	"posture-service/internal/source"
	"posture-service/internal/util"
)

// SyncService owns the four per-source reconcilers. Each reconciler
// fetches its feed, normalizes rows into typed entities, reconciles
// them against the persisted set, and writes one audit log entry.
type SyncService struct {
	fetcher    source.Fetcher
	identities postgres.IdentityStore
	devices    postgres.DeviceStore
	alerts     postgres.AlertStore
	breaches   postgres.BreachStore
	syncLog    clickhouse.SyncLogStore
	indexer    *AlertIndexer
	batchSize  int
	logger     *zap.Logger
}

func NewSyncService(
	fetcher source.Fetcher,
	identities postgres.IdentityStore,
	devices postgres.DeviceStore,
	alerts postgres.AlertStore,
	breaches postgres.BreachStore,
	syncLog clickhouse.SyncLogStore,
	indexer *AlertIndexer,
	batchSize int,
	logger *zap.Logger,
) *SyncService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SyncService{
		fetcher:    fetcher,
		identities: identities,
		devices:    devices,
		alerts:     alerts,
		breaches:   breaches,
		syncLog:    syncLog,
		indexer:    indexer,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// SyncSource dispatches to the reconciler for the given source id.
func (s *SyncService) SyncSource(ctx context.Context, sourceID string) models.SyncResult {
	switch sourceID {
	case models.SourceIdentity:
		return s.SyncIdentities(ctx)
	case models.SourceDevice:
		return s.SyncDevices(ctx)
	case models.SourceAlert:
		return s.SyncAlerts(ctx)
	case models.SourceBreach:
		return s.SyncBreaches(ctx)
	default:
		return models.SyncResult{
			Source: sourceID,
			Error:  "unknown source: " + sourceID,
		}
	}
}

// finish builds the run result, logs it, and appends the audit entry.
// Count carries whatever committed before a failure; prior batches stay
// committed.
func (s *SyncService) finish(ctx context.Context, sourceID string, count int, started time.Time, err error) models.SyncResult {
	duration := time.Since(started)
	result := models.SyncResult{
		Source:     sourceID,
		Count:      count,
		Duration:   duration,
		DurationMs: duration.Milliseconds(),
	}

	entry := models.SyncLogEntry{
		ID:          uuid.NewString(),
		Source:      sourceID,
		RecordCount: count,
		DurationMs:  result.DurationMs,
		CreatedAt:   time.Now().UTC(),
	}

	if err != nil {
		result.Error = err.Error()
		entry.Status = models.SyncStatusError
		entry.Error = err.Error()
		util.Error("Sync failed",
			zap.String("source", sourceID),
			zap.Int("count", count),
			zap.Duration("duration", duration),
			zap.Error(err))
	} else {
		result.Success = true
		entry.Status = models.SyncStatusSuccess
		util.Info("Sync completed",
			zap.String("source", sourceID),
			zap.Int("count", count),
			zap.Duration("duration", duration))
	}

	// A lost audit entry must not flip the sync outcome
	if s.syncLog != nil {
		if logErr := s.syncLog.Record(ctx, entry); logErr != nil {
			util.Error("Failed to append sync log entry",
				zap.String("source", sourceID),
				zap.Error(logErr))
		}
	}

	return result
}
