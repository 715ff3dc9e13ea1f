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

// SyncIdentities reconciles the phishing-awareness training feed.
// Upsert-only by user id: the feed is user-level incremental, so rows
// absent from a refresh are left alone.
func (s *SyncService) SyncIdentities(ctx context.Context) models.SyncResult {
	started := time.Now()

	records, err := s.fetcher.Fetch(ctx, models.SourceIdentity)
	if err != nil {
		return s.finish(ctx, models.SourceIdentity, 0, started, err)
	}

	now := time.Now().UTC()
	entities := make([]models.IdentityRiskRecord, 0, len(records))
	skipped := 0
	for _, rec := range records {
		userID := rec.Str(source.HdrUserID)
		email := rec.Str(source.HdrEmail)
		if userID == "" || email == "" {
			skipped++
			continue
		}

		entities = append(entities, models.IdentityRiskRecord{
			UserID:           userID,
			Email:            email,
			FirstName:        rec.NullableStr(source.HdrFirstName),
			LastName:         rec.NullableStr(source.HdrLastName),
			Department:       rec.NullableStr(source.HdrDepartment),
			Division:         rec.NullableStr(source.HdrDivision),
			Location:         rec.NullableStr(source.HdrLocation),
			Title:            rec.NullableStr(source.HdrTitle),
			ManagerName:      rec.NullableStr(source.HdrManagerName),
			ManagerEmail:     rec.NullableStr(source.HdrManagerEmail),
			Status:           rec.StrOr(source.HdrStatus, models.IdentityStatusActive),
			CurrentRiskScore: rec.Float(source.HdrRiskScore),
			PhishPronePct:    rec.Float(source.HdrPhishPronePct),
			LastSeen:         rec.Time(source.HdrLastSignIn),
			FirstSyncedAt:    now,
			SyncedAt:         now,
		})
	}

	if skipped > 0 {
		util.Warn("Skipped identity rows missing user id or email",
			zap.Int("skipped", skipped))
	}

	// One transaction per batch: a failing batch rolls back alone,
	// earlier batches stay committed.
	committed := 0
	for start := 0; start < len(entities); start += s.batchSize {
		end := min(start+s.batchSize, len(entities))
		if err := s.identities.UpsertBatch(ctx, entities[start:end]); err != nil {
			return s.finish(ctx, models.SourceIdentity, committed, started,
				fmt.Errorf("identity batch %d failed: %w", start/s.batchSize+1, err))
		}
		committed = end
	}

	return s.finish(ctx, models.SourceIdentity, committed, started, nil)
}
