package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"posture-service/internal/service"
	"posture-service/internal/util"
)

// Scheduler drives the periodic sync and the daily snapshot capture.
// Both tick loops stop when the run context is cancelled; in-flight
// work is left to finish on its own.
type Scheduler struct {
	orchestrator *service.Orchestrator
	snapshots    *service.SnapshotService

	syncInterval time.Duration
	snapshotHour int

	lastSnapshotDate time.Time
	logger           *zap.Logger
}

func New(orchestrator *service.Orchestrator, snapshots *service.SnapshotService, syncInterval time.Duration, snapshotHour int, logger *zap.Logger) *Scheduler {
	if syncInterval <= 0 {
		syncInterval = time.Hour
	}
	if snapshotHour < 0 || snapshotHour > 23 {
		snapshotHour = 23
	}
	return &Scheduler{
		orchestrator: orchestrator,
		snapshots:    snapshots,
		syncInterval: syncInterval,
		snapshotHour: snapshotHour,
		logger:       logger,
	}
}

// Start launches the tick loops and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	go s.runSyncLoop(ctx)
	go s.runSnapshotLoop(ctx)

	util.Info("Scheduler started",
		zap.Duration("sync_interval", s.syncInterval),
		zap.Int("snapshot_hour", s.snapshotHour))
}

func (s *Scheduler) runSyncLoop(ctx context.Context) {
	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.Info("Sync loop stopped")
			return
		case <-ticker.C:
			s.orchestrator.TryRunScheduled(ctx)
		}
	}
}

// runSnapshotLoop checks once a minute whether the capture window has
// opened. The last-captured date guard keeps one capture per day; a
// manual capture for the same day just overwrites the row.
func (s *Scheduler) runSnapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.Info("Snapshot loop stopped")
			return
		case <-ticker.C:
			s.maybeCapture(ctx)
		}
	}
}

func (s *Scheduler) maybeCapture(ctx context.Context) {
	today := s.snapshots.Today()
	if !today.After(s.lastSnapshotDate) {
		return
	}
	if time.Now().In(s.snapshots.Location()).Hour() < s.snapshotHour {
		return
	}

	capCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if _, err := s.snapshots.CaptureSnapshot(capCtx); err != nil {
		util.Error("Scheduled snapshot capture failed", zap.Error(err))
		return
	}
	s.lastSnapshotDate = today
}
