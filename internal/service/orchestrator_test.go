package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"posture-service/internal/models"
	"posture-service/internal/source"
)

type recordingInvalidator struct {
	mu     sync.Mutex
	scopes []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, scope string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes = append(r.scopes, scope)
	return nil
}

func (r *recordingInvalidator) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.scopes))
	copy(out, r.scopes)
	return out
}

func newTestOrchestrator(f *fixture, inv Invalidator) *Orchestrator {
	return NewOrchestrator(f.svc, inv, nil, nil)
}

func seedAllGrids(f *fixture) {
	f.fetcher.grids[models.SourceIdentity] = [][]string{
		{"user_id", "email"},
		{"u1", "u1@example.com"},
	}
	f.fetcher.grids[models.SourceDevice] = [][]string{
		{"AllDeviceNames", "AllDeviceIPs"},
		{"router-1", "router-1(10.0.0.1)"},
	}
	f.fetcher.grids[models.SourceAlert] = [][]string{
		{"端末名", "検知時刻"},
		{"host-a", "2026-02-10 14:00:00"},
	}
	f.fetcher.grids[models.SourceBreach] = [][]string{
		{"email", "breach_name"},
		{"u1@example.com", "MegaCorp2025"},
	}
}

func TestOrchestratorRunAll(t *testing.T) {
	f := newFixture(100)
	seedAllGrids(f)
	inv := &recordingInvalidator{}
	o := newTestOrchestrator(f, inv)

	combined, err := o.RunAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !combined.Success {
		t.Fatalf("expected success, got %+v", combined)
	}
	if len(combined.Results) != 4 {
		t.Fatalf("expected 4 per-source results, got %d", len(combined.Results))
	}
	if combined.TotalCount != 4 {
		t.Fatalf("expected total count 4, got %d", combined.TotalCount)
	}

	status := o.Status()
	if status.IsSyncing {
		t.Fatalf("in-flight flag must clear after the run")
	}
	if status.LastSyncTime == nil || status.LastSyncResult == nil {
		t.Fatalf("expected last run remembered")
	}

	// Cache invalidation fires asynchronously with the all scope
	deadline := time.Now().Add(2 * time.Second)
	for {
		if scopes := inv.seen(); len(scopes) > 0 {
			if scopes[0] != models.ScopeAll {
				t.Fatalf("expected scope %q, got %q", models.ScopeAll, scopes[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("cache invalidation never fired")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestOrchestratorPartialFailure(t *testing.T) {
	f := newFixture(100)
	seedAllGrids(f)
	f.fetcher.errs[models.SourceAlert] = errors.New("upstream 503")
	o := newTestOrchestrator(f, nil)

	combined, err := o.RunAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if combined.Success {
		t.Fatalf("one failed source must fail the combined result")
	}

	// The other three sources still committed
	if len(f.identities.byUserID) != 1 || len(f.devices.byKey) != 1 || len(f.breaches.byKey) != 1 {
		t.Fatalf("healthy sources must still sync")
	}
}

func TestOrchestratorSkipsWhenInFlight(t *testing.T) {
	f := newFixture(100)
	seedAllGrids(f)

	// Every fetch blocks until released, holding the in-flight flag
	blocking := newBlockingFetcher(f.fetcher)
	f.svc = NewSyncService(blocking, f.identities, f.devices, f.alerts, f.breaches, f.syncLog, nil, 100, nil)
	o := newTestOrchestrator(f, nil)

	done := make(chan struct{})
	go func() {
		o.RunAll(context.Background())
		close(done)
	}()

	<-blocking.started
	if _, err := o.RunAll(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
	if _, err := o.RunSource(context.Background(), models.SourceDevice); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress for single source, got %v", err)
	}

	close(blocking.release)
	<-done

	// Flag released: a new run is accepted
	if _, err := o.RunAll(context.Background()); err != nil {
		t.Fatalf("expected run after release, got %v", err)
	}
}

func TestOrchestratorRunSourceValidation(t *testing.T) {
	f := newFixture(100)
	o := newTestOrchestrator(f, nil)

	if _, err := o.RunSource(context.Background(), "nope"); !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestOrchestratorRunSource(t *testing.T) {
	f := newFixture(100)
	seedAllGrids(f)
	inv := &recordingInvalidator{}
	o := newTestOrchestrator(f, inv)

	result, err := o.RunSource(context.Background(), models.SourceBreach)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Success || result.Source != models.SourceBreach {
		t.Fatalf("unexpected result: %+v", result)
	}

	// Only the breach store was touched
	if len(f.identities.byUserID) != 0 || len(f.devices.byKey) != 0 {
		t.Fatalf("single-source run must not touch other stores")
	}
}

// blockingFetcher stalls every fetch until release closes, so a test
// can observe the in-flight window.
type blockingFetcher struct {
	inner   source.Fetcher
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func newBlockingFetcher(inner source.Fetcher) *blockingFetcher {
	return &blockingFetcher{
		inner:   inner,
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (b *blockingFetcher) Fetch(ctx context.Context, sourceID string) ([]source.Record, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return b.inner.Fetch(ctx, sourceID)
}
