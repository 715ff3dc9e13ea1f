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

// SyncAlerts reconciles the endpoint-detection feed. Existing alerts
// only get their third-party verdict refreshed; workflow status and
// assignee stay with the analyst. New keys are created as "new".
func (s *SyncService) SyncAlerts(ctx context.Context) models.SyncResult {
	started := time.Now()

	records, err := s.fetcher.Fetch(ctx, models.SourceAlert)
	if err != nil {
		return s.finish(ctx, models.SourceAlert, 0, started, err)
	}

	// One key scan up front instead of a lookup per row
	existing, err := s.alerts.ExistingKeys(ctx)
	if err != nil {
		return s.finish(ctx, models.SourceAlert, 0, started, err)
	}

	now := time.Now().UTC()
	entities := make([]models.AlertRecord, 0, len(records))
	newCount, skipped := 0, 0
	for _, rec := range records {
		hostname := rec.Str(source.HdrAlertHostname)
		detected := rec.Time(source.HdrAlertTime)
		if hostname == "" || detected == nil {
			skipped++
			continue
		}

		alert := models.AlertRecord{
			Hostname:   hostname,
			DetectedAt: *detected,
			FileHash:   rec.Str(source.HdrAlertFileHash),
			Severity:   rec.StrOr(source.HdrAlertSeverity, models.SeverityLow),
			RuleName:   rec.Str(source.HdrAlertRule),
			Domain:     rec.NullableStr(source.HdrAlertDomain),
			FilePath:   rec.NullableStr(source.HdrAlertFilePath),
			Verdict:    rec.NullableStr(source.HdrAlertVerdict),
			// Only applied on insert; the conflict clause never
			// touches workflow fields of existing rows
			Status:   models.AlertStatusNew,
			SyncedAt: now,
		}

		if !existing[alert.Key()] {
			newCount++
		}
		entities = append(entities, alert)
	}

	if skipped > 0 {
		util.Warn("Skipped alert rows missing hostname or detection time",
			zap.Int("skipped", skipped))
	}

	committed := 0
	for start := 0; start < len(entities); start += s.batchSize {
		end := min(start+s.batchSize, len(entities))
		if err := s.alerts.UpsertBatch(ctx, entities[start:end]); err != nil {
			return s.finish(ctx, models.SourceAlert, committed, started,
				fmt.Errorf("alert batch %d failed: %w", start/s.batchSize+1, err))
		}
		committed = end
	}

	util.Debug("Alert reconciliation detail",
		zap.Int("created", newCount),
		zap.Int("refreshed", committed-newCount))

	// Search indexing is best effort and never affects the sync outcome
	if s.indexer != nil {
		s.indexer.IndexAlerts(ctx, entities)
	}

	return s.finish(ctx, models.SourceAlert, committed, started, nil)
}
