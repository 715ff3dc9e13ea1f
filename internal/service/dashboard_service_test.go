package service

import (
	"context"
	"testing"
	"time"

	"posture-service/internal/models"
	"posture-service/internal/risk"
)

type memDashboardCache struct {
	dash *models.Dashboard
	sets int
	hits int
}

func (c *memDashboardCache) Get(ctx context.Context) (*models.Dashboard, bool) {
	if c.dash == nil {
		return nil, false
	}
	c.hits++
	return c.dash, true
}

func (c *memDashboardCache) Set(ctx context.Context, dash *models.Dashboard) error {
	c.dash = dash
	c.sets++
	return nil
}

func newDashboardFixture() (*fixture, *DashboardService, *memDashboardCache) {
	f := newFixture(100)
	cache := &memDashboardCache{}
	collector := NewStatsCollector(f.identities, f.devices, f.alerts, f.breaches)
	svc := NewDashboardService(collector, risk.NewConfigStore(), cache, nil)
	return f, svc, cache
}

func TestComputeDashboard(t *testing.T) {
	f, svc, cache := newDashboardFixture()
	seedAllGrids(f)
	for _, src := range models.Sources {
		if res := f.svc.SyncSource(context.Background(), src); !res.Success {
			t.Fatalf("seed sync %s failed: %q", src, res.Error)
		}
	}

	dash, err := svc.ComputeDashboard(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(dash.Sources) != 4 {
		t.Fatalf("expected 4 source breakdowns, got %d", len(dash.Sources))
	}
	if dash.OverallScore < 0 || dash.OverallScore > 100 {
		t.Fatalf("overall score %d outside [0,100]", dash.OverallScore)
	}
	if dash.RiskLevel == "" {
		t.Fatalf("expected a risk level")
	}

	// One pending alert and one pending breach make these non-zero
	if dash.Sources[models.SourceAlert].SubScore == 0 {
		t.Errorf("expected non-zero alert sub-score")
	}
	if dash.Sources[models.SourceBreach].SubScore == 0 {
		t.Errorf("expected non-zero breach sub-score")
	}

	if cache.sets != 1 {
		t.Fatalf("expected computed dashboard cached once, got %d", cache.sets)
	}
}

func TestComputeDashboardServesCache(t *testing.T) {
	_, svc, cache := newDashboardFixture()

	cached := &models.Dashboard{
		OverallScore: 42,
		RiskLevel:    risk.LevelMedium,
		GeneratedAt:  time.Now().UTC(),
	}
	cache.dash = cached

	dash, err := svc.ComputeDashboard(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if dash != cached {
		t.Fatalf("expected the cached payload back")
	}
	if cache.hits != 1 || cache.sets != 0 {
		t.Fatalf("expected pure cache hit, hits=%d sets=%d", cache.hits, cache.sets)
	}
}

func TestDashboardRiskConfigUpdates(t *testing.T) {
	_, svc, _ := newDashboardFixture()

	weights, err := svc.UpdateRiskWeights(risk.WeightsUpdate{KB4: f64(0.25), NCM: f64(0.25), EDR: f64(0.25), HIBP: f64(0.25)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if weights.KB4 != 0.25 {
		t.Fatalf("unexpected kb4 weight %v", weights.KB4)
	}
	if got := svc.RiskConfig().Weights; got != weights {
		t.Fatalf("snapshot must reflect the update, got %+v", got)
	}

	if _, err := svc.UpdateRiskThresholds(risk.ThresholdsUpdate{Low: f64(95)}); err == nil {
		t.Fatalf("expected out-of-order thresholds rejected")
	}
}

func f64(v float64) *float64 { return &v }
