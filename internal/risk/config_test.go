package risk

import (
	"math"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestUpdateWeightsNormalizes(t *testing.T) {
	store := NewConfigStore()

	got, err := store.UpdateWeights(WeightsUpdate{
		KB4:  f64(0.1),
		NCM:  f64(0.1),
		EDR:  f64(0.1),
		HIBP: f64(0.1),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for name, w := range map[string]float64{"kb4": got.KB4, "ncm": got.NCM, "edr": got.EDR, "hibp": got.HIBP} {
		if math.Abs(w-0.25) > 1e-9 {
			t.Errorf("expected %s weight 0.25 after normalization, got %v", name, w)
		}
	}

	sum := got.KB4 + got.NCM + got.EDR + got.HIBP
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("expected normalized weights to sum to 1, got %v", sum)
	}
}

func TestUpdateWeightsPartial(t *testing.T) {
	store := NewConfigStore()

	// Bump kb4 only; the rest keep their defaults before normalization
	got, err := store.UpdateWeights(WeightsUpdate{KB4: f64(0.4)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// 0.4 + 0.35 + 0.30 + 0.15 = 1.2, normalized
	if math.Abs(got.KB4-0.4/1.2) > 1e-9 {
		t.Fatalf("expected kb4 weight %v, got %v", 0.4/1.2, got.KB4)
	}
}

func TestUpdateWeightsRejectsInvalid(t *testing.T) {
	store := NewConfigStore()
	before := store.Snapshot().Weights

	cases := []WeightsUpdate{
		{KB4: f64(-0.5)},
		{KB4: f64(math.NaN())},
		{KB4: f64(math.Inf(1))},
		{KB4: f64(0), NCM: f64(0), EDR: f64(0), HIBP: f64(0)},
	}
	for i, update := range cases {
		if _, err := store.UpdateWeights(update); err == nil {
			t.Errorf("case %d: expected rejection, got nil error", i)
		}
	}

	if store.Snapshot().Weights != before {
		t.Fatalf("rejected updates must not change stored weights")
	}
}

func TestUpdateThresholds(t *testing.T) {
	store := NewConfigStore()

	got, err := store.UpdateThresholds(ThresholdsUpdate{Critical: f64(90), High: f64(70)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Critical != 90 || got.High != 70 || got.Medium != 40 || got.Low != 20 {
		t.Fatalf("unexpected thresholds: %+v", got)
	}
}

func TestUpdateThresholdsRejectsInvalid(t *testing.T) {
	store := NewConfigStore()
	before := store.Snapshot().Thresholds

	cases := []ThresholdsUpdate{
		{Critical: f64(120)},
		{Low: f64(-1)},
		{High: f64(30)}, // out of order against medium 40
		{Medium: f64(60), High: f64(60)},
	}
	for i, update := range cases {
		if _, err := store.UpdateThresholds(update); err == nil {
			t.Errorf("case %d: expected rejection, got nil error", i)
		}
	}

	if store.Snapshot().Thresholds != before {
		t.Fatalf("rejected updates must not change stored thresholds")
	}
}

func TestUpdateFactors(t *testing.T) {
	store := NewConfigStore()

	got, err := store.UpdateFactors(FactorsUpdate{
		HIBPPendingMultiplier: f64(5),
		KB4RiskScoreThreshold: f64(60),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.HIBPPendingMultiplier != 5 || got.KB4RiskScoreThreshold != 60 {
		t.Fatalf("unexpected factors: %+v", got)
	}
	// Untouched factors keep their defaults
	if got.NCMCvssMultiplier != 8 {
		t.Fatalf("expected ncm cvss multiplier 8, got %v", got.NCMCvssMultiplier)
	}
}

func TestUpdateFactorsRejectsInvalid(t *testing.T) {
	store := NewConfigStore()
	before := store.Snapshot().Factors

	cases := []FactorsUpdate{
		{EDRPendingWeight: f64(-1)},
		{NCMCvssMultiplier: f64(math.NaN())},
		{KB4AvgScoreWeight: f64(math.Inf(1))},
	}
	for i, update := range cases {
		if _, err := store.UpdateFactors(update); err == nil {
			t.Errorf("case %d: expected rejection, got nil error", i)
		}
	}

	if store.Snapshot().Factors != before {
		t.Fatalf("rejected updates must not change stored factors")
	}
}
