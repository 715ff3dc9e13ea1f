package risk

import (
	"math"
	"testing"

	"posture-service/internal/models"
)

func TestIdentitySubScore(t *testing.T) {
	f := DefaultConfig().Factors

	// 10 of 40 active past the cutoff: 25% * 2 + avg 30 * 1 = 80
	s := models.IdentityStats{Active: 40, HighRisk: 10, AvgRiskScore: 30}
	if got := IdentitySubScore(s, f); got != 80 {
		t.Fatalf("expected sub-score 80, got %v", got)
	}
}

func TestIdentitySubScoreEmptyFleet(t *testing.T) {
	f := DefaultConfig().Factors

	s := models.IdentityStats{Active: 0, HighRisk: 0, AvgRiskScore: 0}
	if got := IdentitySubScore(s, f); got != 0 {
		t.Fatalf("expected 0 for empty fleet, got %v", got)
	}
}

func TestDeviceSubScoreClamped(t *testing.T) {
	f := DefaultConfig().Factors

	// 100% critical * 3 + 9.8 * 8 far exceeds the cap
	s := models.DeviceStats{Total: 4, CriticalPriority: 4, AvgMaxCVSS: 9.8}
	if got := DeviceSubScore(s, f); got != 100 {
		t.Fatalf("expected clamp to 100, got %v", got)
	}
}

func TestAlertSubScore(t *testing.T) {
	f := DefaultConfig().Factors

	// 5 of 10 pending + 3 of 10 high severity: 50 + 30 = 80
	s := models.AlertStats{Total: 10, Pending: 5, HighSeverity: 3}
	if got := AlertSubScore(s, f); got != 80 {
		t.Fatalf("expected sub-score 80, got %v", got)
	}
}

func TestBreachSubScore(t *testing.T) {
	f := DefaultConfig().Factors

	s := models.BreachStats{Total: 20, Pending: 3}
	if got := BreachSubScore(s, f); got != 30 {
		t.Fatalf("expected sub-score 30, got %v", got)
	}

	// 15 pending * 10 clamps
	s.Pending = 15
	if got := BreachSubScore(s, f); got != 100 {
		t.Fatalf("expected clamp to 100, got %v", got)
	}
}

func TestEvaluateBounded(t *testing.T) {
	cfg := DefaultConfig()

	extremes := []models.PostureStats{
		{},
		{
			Identity: models.IdentityStats{Active: 1, HighRisk: 1, AvgRiskScore: 100},
			Device:   models.DeviceStats{Total: 1, CriticalPriority: 1, AvgMaxCVSS: 10},
			Alert:    models.AlertStats{Total: 1, Pending: 1, HighSeverity: 1},
			Breach:   models.BreachStats{Total: 100, Pending: 100},
		},
	}

	for _, stats := range extremes {
		a := Evaluate(cfg, stats)
		if a.Overall < 0 || a.Overall > 100 {
			t.Errorf("overall score %d outside [0,100]", a.Overall)
		}
		for src, sub := range a.SubScores {
			if sub < 0 || sub > 100 {
				t.Errorf("sub-score %v for %s outside [0,100]", sub, src)
			}
		}
	}
}

func TestEvaluateWeighting(t *testing.T) {
	cfg := DefaultConfig()

	// Only the breach sub-score is non-zero: 5 pending * 10 = 50,
	// weighted by 0.15 and rounded
	stats := models.PostureStats{Breach: models.BreachStats{Total: 5, Pending: 5}}
	a := Evaluate(cfg, stats)

	want := int(math.Round(50 * cfg.Weights.HIBP))
	if a.Overall != want {
		t.Fatalf("expected overall %d, got %d", want, a.Overall)
	}
	if a.Level != LevelMinimal {
		t.Fatalf("expected minimal level, got %s", a.Level)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	th := DefaultConfig().Thresholds

	cases := []struct {
		score float64
		want  string
	}{
		{100, LevelCritical},
		{80, LevelCritical},
		{79.9, LevelHigh},
		{60, LevelHigh},
		{59, LevelMedium},
		{40, LevelMedium},
		{39.5, LevelLow},
		{20, LevelLow},
		{19.9, LevelMinimal},
		{0, LevelMinimal},
	}
	for _, c := range cases {
		if got := Classify(c.score, th); got != c.want {
			t.Errorf("Classify(%v) = %s, want %s", c.score, got, c.want)
		}
	}
}
