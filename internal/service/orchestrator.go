package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"posture-service/internal/models"
	"posture-service/internal/util"
)

// ErrSyncInProgress signals that a run was skipped because another sync
// holds the in-flight flag. Skipping instead of queueing is deliberate:
// queued runs compound under sustained load.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrUnknownSource signals a source id outside the configured feeds.
var ErrUnknownSource = errors.New("unknown sync source")

// Orchestrator runs the reconcilers, tracks in-memory sync state, and
// fires post-sync notifications. State resets on process restart.
type Orchestrator struct {
	syncService *SyncService
	invalidator Invalidator
	notifier    *SyncNotifier
	logger      *zap.Logger

	syncing atomic.Bool

	mu         sync.RWMutex
	lastTime   *time.Time
	lastResult *models.CombinedSyncResult
}

func NewOrchestrator(syncService *SyncService, invalidator Invalidator, notifier *SyncNotifier, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		syncService: syncService,
		invalidator: invalidator,
		notifier:    notifier,
		logger:      logger,
	}
}

// RunAll reconciles all four sources concurrently. The reconcilers own
// disjoint tables and disjoint audit writes, so their I/O waits may
// freely overlap.
func (o *Orchestrator) RunAll(ctx context.Context) (*models.CombinedSyncResult, error) {
	if !o.syncing.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer o.syncing.Store(false)

	started := time.Now()
	util.Info("Orchestrated sync started")

	results := make([]models.SyncResult, len(models.Sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range models.Sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = o.syncService.SyncSource(gctx, src)
			return nil
		})
	}
	_ = g.Wait() // reconcilers report failures in their results

	combined := o.combine(results, started)
	o.remember(combined)
	o.afterSync(models.ScopeAll, combined)

	return combined, nil
}

// RunSource reconciles a single source, typically from a manual
// trigger. It shares the in-flight flag with orchestrated runs.
func (o *Orchestrator) RunSource(ctx context.Context, sourceID string) (*models.SyncResult, error) {
	if !models.ValidSource(sourceID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, sourceID)
	}
	if !o.syncing.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer o.syncing.Store(false)

	started := time.Now()
	result := o.syncService.SyncSource(ctx, sourceID)

	combined := o.combine([]models.SyncResult{result}, started)
	o.remember(combined)
	o.afterSync(sourceID, combined)

	return &result, nil
}

// TryRunScheduled is the scheduler entry point: it skips silently when
// a sync is already in flight.
func (o *Orchestrator) TryRunScheduled(ctx context.Context) {
	if _, err := o.RunAll(ctx); err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			util.Warn("Scheduled sync skipped, previous run still in flight")
			return
		}
		util.Error("Scheduled sync failed", zap.Error(err))
	}
}

// Status reports the orchestrator's in-memory state.
func (o *Orchestrator) Status() models.SyncStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return models.SyncStatus{
		IsSyncing:      o.syncing.Load(),
		LastSyncTime:   o.lastTime,
		LastSyncResult: o.lastResult,
	}
}

func (o *Orchestrator) combine(results []models.SyncResult, started time.Time) *models.CombinedSyncResult {
	combined := &models.CombinedSyncResult{
		Results:    results,
		Success:    true,
		DurationMs: time.Since(started).Milliseconds(),
		StartedAt:  started.UTC(),
	}
	for _, r := range results {
		combined.TotalCount += r.Count
		if !r.Success {
			combined.Success = false
		}
	}
	return combined
}

func (o *Orchestrator) remember(combined *models.CombinedSyncResult) {
	now := time.Now().UTC()
	o.mu.Lock()
	o.lastTime = &now
	o.lastResult = combined
	o.mu.Unlock()
}

// afterSync fires cache invalidation and the completion event without
// blocking the caller; neither outcome affects sync correctness.
func (o *Orchestrator) afterSync(scope string, combined *models.CombinedSyncResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if o.invalidator != nil {
			if err := o.invalidator.Invalidate(ctx, scope); err != nil {
				util.Warn("Cache invalidation failed",
					zap.String("scope", scope),
					zap.Error(err))
			}
		}
		if err := o.notifier.SyncCompleted(ctx, scope, combined); err != nil {
			util.Warn("Sync event publish failed",
				zap.String("scope", scope),
				zap.Error(err))
		}
	}()
}
