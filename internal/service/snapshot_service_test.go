package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"posture-service/internal/models"
	"posture-service/internal/risk"
)

type memSnapshotStore struct {
	mu     sync.Mutex
	byDate map[string]models.DailySnapshot
	err    error
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{byDate: make(map[string]models.DailySnapshot)}
}

func (m *memSnapshotStore) Upsert(ctx context.Context, snap models.DailySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.byDate[snap.SnapshotDate.Format("2006-01-02")] = snap
	return nil
}

func (m *memSnapshotStore) List(ctx context.Context, from, to time.Time) ([]models.DailySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DailySnapshot, 0, len(m.byDate))
	for _, snap := range m.byDate {
		if !snap.SnapshotDate.Before(from) && !snap.SnapshotDate.After(to) {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SnapshotDate.Before(out[j].SnapshotDate) })
	return out, nil
}

func newSnapshotFixture(t *testing.T) (*fixture, *SnapshotService, *memSnapshotStore) {
	t.Helper()
	f := newFixture(100)
	store := newMemSnapshotStore()
	collector := NewStatsCollector(f.identities, f.devices, f.alerts, f.breaches)
	svc := NewSnapshotService(collector, risk.NewConfigStore(), store, "UTC", nil)
	return f, svc, store
}

func TestCaptureSnapshot(t *testing.T) {
	f, svc, store := newSnapshotFixture(t)
	seedAllGrids(f)
	for _, src := range models.Sources {
		if res := f.svc.SyncSource(context.Background(), src); !res.Success {
			t.Fatalf("seed sync %s failed: %q", src, res.Error)
		}
	}

	snap, err := svc.CaptureSnapshot(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if snap.IdentityTotal != 1 || snap.DeviceTotal != 1 || snap.AlertTotal != 1 || snap.BreachTotal != 1 {
		t.Fatalf("unexpected rollup: %+v", snap)
	}
	if snap.RiskLevel == "" {
		t.Fatalf("expected a risk level")
	}
	if h, m, s := snap.SnapshotDate.Clock(); h != 0 || m != 0 || s != 0 {
		t.Fatalf("snapshot date must be truncated to midnight, got %v", snap.SnapshotDate)
	}
	if len(store.byDate) != 1 {
		t.Fatalf("expected 1 stored snapshot, got %d", len(store.byDate))
	}
}

func TestCaptureSnapshotSameDateOverwrites(t *testing.T) {
	f, svc, store := newSnapshotFixture(t)

	first, err := svc.CaptureSnapshot(context.Background())
	if err != nil {
		t.Fatalf("first capture: %v", err)
	}
	if first.BreachTotal != 0 {
		t.Fatalf("expected empty rollup, got %+v", first)
	}

	// New data lands, then a recapture for the same day
	f.fetcher.grids[models.SourceBreach] = [][]string{
		{"email", "breach_name"},
		{"u1@example.com", "MegaCorp2025"},
	}
	if res := f.svc.SyncBreaches(context.Background()); !res.Success {
		t.Fatalf("breach sync failed: %q", res.Error)
	}

	second, err := svc.CaptureSnapshot(context.Background())
	if err != nil {
		t.Fatalf("second capture: %v", err)
	}
	if second.BreachTotal != 1 {
		t.Fatalf("expected recapture to see new data, got %+v", second)
	}
	if len(store.byDate) != 1 {
		t.Fatalf("same-date recapture must overwrite, got %d rows", len(store.byDate))
	}

	stored := store.byDate[second.SnapshotDate.Format("2006-01-02")]
	if stored.BreachTotal != 1 {
		t.Fatalf("stored row must carry the recapture, got %+v", stored)
	}
}

func TestSnapshotsWindow(t *testing.T) {
	_, svc, store := newSnapshotFixture(t)

	today := svc.Today()
	for _, daysAgo := range []int{0, 5, 45} {
		date := today.AddDate(0, 0, -daysAgo)
		store.byDate[date.Format("2006-01-02")] = models.DailySnapshot{SnapshotDate: date}
	}

	snaps, err := svc.Snapshots(context.Background(), 30)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots inside the 30-day window, got %d", len(snaps))
	}
	if !snaps[0].SnapshotDate.Before(snaps[1].SnapshotDate) {
		t.Fatalf("expected ascending order")
	}

	// Out-of-range day arguments fall back to the default window
	snaps, err = svc.Snapshots(context.Background(), -1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected default 30-day window, got %d snapshots", len(snaps))
	}
}
