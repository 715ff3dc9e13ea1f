package service

import (
	"context"
	"sync"

	"posture-service/internal/models"
	"posture-service/internal/source"
)

// In-memory doubles for the stores and the feed fetcher. They mirror
// the reconciliation semantics of the real repositories closely enough
// to exercise the service layer without a database.

type stubFetcher struct {
	grids map[string][][]string
	errs  map[string]error
}

func (s *stubFetcher) Fetch(ctx context.Context, sourceID string) ([]source.Record, error) {
	if err := s.errs[sourceID]; err != nil {
		return nil, err
	}
	return source.Records(s.grids[sourceID]), nil
}

type memIdentityStore struct {
	mu       sync.Mutex
	byUserID map[string]models.IdentityRiskRecord

	// failAfter fails every batch once failAfter batches have
	// succeeded; -1 never fails
	failAfter int
	batches   int
	batchErr  error
}

func newMemIdentityStore() *memIdentityStore {
	return &memIdentityStore{byUserID: make(map[string]models.IdentityRiskRecord), failAfter: -1}
}

func (m *memIdentityStore) UpsertBatch(ctx context.Context, records []models.IdentityRiskRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter >= 0 && m.batches >= m.failAfter {
		return m.batchErr
	}
	m.batches++
	for _, rec := range records {
		if prev, ok := m.byUserID[rec.UserID]; ok {
			rec.FirstSyncedAt = prev.FirstSyncedAt
		}
		m.byUserID[rec.UserID] = rec
	}
	return nil
}

func (m *memIdentityStore) Stats(ctx context.Context, riskThreshold, phishThreshold float64) (models.IdentityStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats models.IdentityStats
	var riskSum, phishSum float64
	for _, rec := range m.byUserID {
		stats.Total++
		switch rec.Status {
		case models.IdentityStatusActive:
			stats.Active++
			riskSum += rec.CurrentRiskScore
			phishSum += rec.PhishPronePct
			if rec.CurrentRiskScore >= riskThreshold || rec.PhishPronePct >= phishThreshold {
				stats.HighRisk++
			}
		case models.IdentityStatusArchived:
			stats.Archived++
		}
	}
	if stats.Active > 0 {
		stats.AvgRiskScore = riskSum / float64(stats.Active)
		stats.AvgPhishProne = phishSum / float64(stats.Active)
	}
	return stats, nil
}

type memDeviceStore struct {
	mu    sync.Mutex
	byKey map[string]models.DeviceRecord
	err   error
}

func newMemDeviceStore() *memDeviceStore {
	return &memDeviceStore{byKey: make(map[string]models.DeviceRecord)}
}

func (m *memDeviceStore) ReplaceAll(ctx context.Context, devices []models.DeviceRecord) (int, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, 0, 0, m.err
	}

	next := make(map[string]models.DeviceRecord, len(devices))
	created, updated := 0, 0
	for _, d := range devices {
		if _, ok := m.byKey[d.Key()]; ok {
			updated++
		} else {
			created++
		}
		next[d.Key()] = d
	}
	deleted := 0
	for key := range m.byKey {
		if _, ok := next[key]; !ok {
			deleted++
		}
	}
	m.byKey = next
	return created, updated, deleted, nil
}

func (m *memDeviceStore) Stats(ctx context.Context) (models.DeviceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats models.DeviceStats
	var cvssSum float64
	for _, d := range m.byKey {
		stats.Total++
		stats.TotalCVEs += d.TotalCVEs
		stats.ActiveExploits += d.ActiveExploits
		cvssSum += d.MaxCVSS
		if d.UpdatePriority == models.PriorityImmediate {
			stats.CriticalPriority++
		}
	}
	if stats.Total > 0 {
		stats.AvgMaxCVSS = cvssSum / float64(stats.Total)
	}
	return stats, nil
}

type memAlertStore struct {
	mu    sync.Mutex
	byKey map[string]models.AlertRecord
	err   error
}

func newMemAlertStore() *memAlertStore {
	return &memAlertStore{byKey: make(map[string]models.AlertRecord)}
}

func (m *memAlertStore) ExistingKeys(ctx context.Context) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	keys := make(map[string]bool, len(m.byKey))
	for key := range m.byKey {
		keys[key] = true
	}
	return keys, nil
}

func (m *memAlertStore) UpsertBatch(ctx context.Context, alerts []models.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, a := range alerts {
		if prev, ok := m.byKey[a.Key()]; ok {
			// Conflict refreshes only the verdict and sync timestamp
			prev.Verdict = a.Verdict
			prev.SyncedAt = a.SyncedAt
			m.byKey[a.Key()] = prev
			continue
		}
		m.byKey[a.Key()] = a
	}
	return nil
}

func (m *memAlertStore) Stats(ctx context.Context) (models.AlertStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats models.AlertStats
	for _, a := range m.byKey {
		stats.Total++
		if models.AlertPending(a.Status) {
			stats.Pending++
		}
		if a.Severity == models.SeverityHigh || a.Severity == models.SeverityCritical {
			stats.HighSeverity++
		}
		if a.Status == models.AlertStatusResolved {
			stats.Resolved++
		}
	}
	return stats, nil
}

type memBreachStore struct {
	mu    sync.Mutex
	byKey map[string]models.BreachRecord
	err   error
}

func newMemBreachStore() *memBreachStore {
	return &memBreachStore{byKey: make(map[string]models.BreachRecord)}
}

func (m *memBreachStore) UpsertBatch(ctx context.Context, breaches []models.BreachRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, b := range breaches {
		key := b.Email + "|" + b.BreachName
		if prev, ok := m.byKey[key]; ok {
			prev.SyncedAt = b.SyncedAt
			m.byKey[key] = prev
			continue
		}
		m.byKey[key] = b
	}
	return nil
}

func (m *memBreachStore) Stats(ctx context.Context) (models.BreachStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats models.BreachStats
	for _, b := range m.byKey {
		stats.Total++
		if b.Status == models.BreachStatusNew || b.Status == models.BreachStatusNotified {
			stats.Pending++
		}
	}
	return stats, nil
}

type memSyncLog struct {
	mu      sync.Mutex
	entries []models.SyncLogEntry
}

func (m *memSyncLog) Record(ctx context.Context, entry models.SyncLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memSyncLog) Recent(ctx context.Context, limit int) ([]models.SyncLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SyncLogEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

type fixture struct {
	fetcher    *stubFetcher
	identities *memIdentityStore
	devices    *memDeviceStore
	alerts     *memAlertStore
	breaches   *memBreachStore
	syncLog    *memSyncLog
	svc        *SyncService
}

func newFixture(batchSize int) *fixture {
	f := &fixture{
		fetcher:    &stubFetcher{grids: map[string][][]string{}, errs: map[string]error{}},
		identities: newMemIdentityStore(),
		devices:    newMemDeviceStore(),
		alerts:     newMemAlertStore(),
		breaches:   newMemBreachStore(),
		syncLog:    &memSyncLog{},
	}
	f.svc = NewSyncService(f.fetcher, f.identities, f.devices, f.alerts, f.breaches, f.syncLog, nil, batchSize, nil)
	return f
}
