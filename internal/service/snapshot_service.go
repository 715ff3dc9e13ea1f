package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"posture-service/internal/models"
	"posture-service/internal/repository/postgres"
	"posture-service/internal/risk"
	"posture-service/internal/util"
)

// SnapshotService captures one point-in-time rollup per calendar day
// in the configured reference timezone.
type SnapshotService struct {
	collector *StatsCollector
	riskCfg   *risk.ConfigStore
	snapshots postgres.SnapshotStore
	location  *time.Location
	logger    *zap.Logger
}

func NewSnapshotService(collector *StatsCollector, riskCfg *risk.ConfigStore, snapshots postgres.SnapshotStore, timezone string, logger *zap.Logger) *SnapshotService {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		util.Warn("Unknown snapshot timezone, falling back to UTC",
			zap.String("timezone", timezone))
		loc = time.UTC
	}
	return &SnapshotService{
		collector: collector,
		riskCfg:   riskCfg,
		snapshots: snapshots,
		location:  loc,
		logger:    logger,
	}
}

// Location returns the reference timezone for capture scheduling.
func (s *SnapshotService) Location() *time.Location {
	return s.location
}

// Today returns the current calendar date in the reference timezone,
// truncated to midnight.
func (s *SnapshotService) Today() time.Time {
	now := time.Now().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// CaptureSnapshot writes today's rollup. Safe to call repeatedly: the
// date-keyed upsert overwrites the earlier capture for the same day.
func (s *SnapshotService) CaptureSnapshot(ctx context.Context) (*models.DailySnapshot, error) {
	cfg := s.riskCfg.Snapshot()
	stats, err := s.collector.Collect(ctx, cfg.Factors)
	if err != nil {
		return nil, fmt.Errorf("failed to collect snapshot stats: %w", err)
	}

	assessment := risk.Evaluate(cfg, stats)
	snap := models.DailySnapshot{
		SnapshotDate:     s.Today(),
		IdentityTotal:    stats.Identity.Total,
		IdentityHighRisk: stats.Identity.HighRisk,
		IdentityAvgScore: stats.Identity.AvgRiskScore,
		DeviceTotal:      stats.Device.Total,
		DeviceCritical:   stats.Device.CriticalPriority,
		DeviceAvgCVSS:    stats.Device.AvgMaxCVSS,
		AlertTotal:       stats.Alert.Total,
		AlertPending:     stats.Alert.Pending,
		AlertHighSev:     stats.Alert.HighSeverity,
		BreachTotal:      stats.Breach.Total,
		BreachPending:    stats.Breach.Pending,
		OverallScore:     assessment.Overall,
		RiskLevel:        assessment.Level,
		CapturedAt:       time.Now().UTC(),
	}

	if err := s.snapshots.Upsert(ctx, snap); err != nil {
		return nil, err
	}

	util.Info("Daily snapshot captured",
		zap.String("date", snap.SnapshotDate.Format("2006-01-02")),
		zap.Int("overall_score", snap.OverallScore),
		zap.String("risk_level", snap.RiskLevel))

	return &snap, nil
}

// Snapshots returns the trailing trend window.
func (s *SnapshotService) Snapshots(ctx context.Context, days int) ([]models.DailySnapshot, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	to := s.Today()
	from := to.AddDate(0, 0, -days)
	return s.snapshots.List(ctx, from, to)
}
