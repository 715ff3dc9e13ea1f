package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"posture-service/internal/models"
	"posture-service/internal/source"
	"posture-service/internal/util"
)

// SyncBreaches reconciles the breached-credential feed. A new
// (email, breach) pair is recorded once; re-syncs only bump the sync
// timestamp, so analyst status and the originally recorded facts stand
// even if the feed revises them later.
func (s *SyncService) SyncBreaches(ctx context.Context) models.SyncResult {
	started := time.Now()

	records, err := s.fetcher.Fetch(ctx, models.SourceBreach)
	if err != nil {
		return s.finish(ctx, models.SourceBreach, 0, started, err)
	}

	now := time.Now().UTC()
	entities := make([]models.BreachRecord, 0, len(records))
	skipped := 0
	for _, rec := range records {
		email := rec.Str(source.HdrBreachEmail)
		breachName := rec.Str(source.HdrBreachName)
		if email == "" || breachName == "" {
			skipped++
			continue
		}

		discovered := now
		if t := rec.Time(source.HdrBreachDiscovered); t != nil {
			discovered = *t
		}

		entities = append(entities, models.BreachRecord{
			Email:        email,
			BreachName:   breachName,
			Domain:       rec.Str(source.HdrBreachDomain),
			Alias:        rec.NullableStr(source.HdrBreachAlias),
			BreachDate:   rec.Time(source.HdrBreachDate),
			DiscoveredAt: discovered,
			Status:       models.BreachStatusNew,
			SyncedAt:     now,
		})
	}

	if skipped > 0 {
		util.Warn("Skipped breach rows missing email or breach name",
			zap.Int("skipped", skipped))
	}

	committed := 0
	for start := 0; start < len(entities); start += s.batchSize {
		end := min(start+s.batchSize, len(entities))
		if err := s.breaches.UpsertBatch(ctx, entities[start:end]); err != nil {
			return s.finish(ctx, models.SourceBreach, committed, started,
				fmt.Errorf("breach batch %d failed: %w", start/s.batchSize+1, err))
		}
		committed = end
	}

	return s.finish(ctx, models.SourceBreach, committed, started, nil)
}
