package risk

import (
	"fmt"
	"math"
	"sync"

	"posture-service/internal/models"
)

// Weights distribute the overall score across the four sources. They
// always sum to 1 after an update.
type Weights struct {
	KB4  float64 `json:"kb4"`
	NCM  float64 `json:"ncm"`
	EDR  float64 `json:"edr"`
	HIBP float64 `json:"hibp"`
}

// Thresholds drive the monotonic risk-level classification.
type Thresholds struct {
	Critical float64 `json:"critical"`
	High     float64 `json:"high"`
	Medium   float64 `json:"medium"`
	Low      float64 `json:"low"`
}

// Factors are the per-source multipliers and high-risk cutoffs.
type Factors struct {
	KB4RiskPctMultiplier   float64 `json:"kb4_risk_percentage_multiplier"`
	KB4AvgScoreWeight      float64 `json:"kb4_avg_score_weight"`
	KB4RiskScoreThreshold  float64 `json:"kb4_risk_score_threshold"`
	KB4PhishProneThreshold float64 `json:"kb4_phish_prone_threshold"`

	NCMCriticalPctMultiplier float64 `json:"ncm_critical_percentage_multiplier"`
	NCMCvssMultiplier        float64 `json:"ncm_cvss_multiplier"`

	EDRPendingWeight      float64 `json:"edr_pending_weight"`
	EDRHighSeverityWeight float64 `json:"edr_high_severity_weight"`

	HIBPPendingMultiplier float64 `json:"hibp_pending_multiplier"`
}

// Config is one consistent view of the scoring configuration.
type Config struct {
	Weights    Weights    `json:"weights"`
	Thresholds Thresholds `json:"thresholds"`
	Factors    Factors    `json:"factors"`
}

func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			KB4:  0.20,
			NCM:  0.35,
			EDR:  0.30,
			HIBP: 0.15,
		},
		Thresholds: Thresholds{
			Critical: 80,
			High:     60,
			Medium:   40,
			Low:      20,
		},
		Factors: Factors{
			KB4RiskPctMultiplier:     2,
			KB4AvgScoreWeight:        1,
			KB4RiskScoreThreshold:    50,
			KB4PhishProneThreshold:   20,
			NCMCriticalPctMultiplier: 3,
			NCMCvssMultiplier:        8,
			EDRPendingWeight:         1,
			EDRHighSeverityWeight:    1,
			HIBPPendingMultiplier:    10,
		},
	}
}

// WeightsUpdate is a partial weight payload; nil fields keep the
// current value.
type WeightsUpdate struct {
	KB4  *float64 `json:"kb4,omitempty"`
	NCM  *float64 `json:"ncm,omitempty"`
	EDR  *float64 `json:"edr,omitempty"`
	HIBP *float64 `json:"hibp,omitempty"`
}

// ThresholdsUpdate is a partial classification-threshold payload.
type ThresholdsUpdate struct {
	Critical *float64 `json:"critical,omitempty"`
	High     *float64 `json:"high,omitempty"`
	Medium   *float64 `json:"medium,omitempty"`
	Low      *float64 `json:"low,omitempty"`
}

// FactorsUpdate is a partial per-source factor payload.
type FactorsUpdate struct {
	KB4RiskPctMultiplier   *float64 `json:"kb4_risk_percentage_multiplier,omitempty"`
	KB4AvgScoreWeight      *float64 `json:"kb4_avg_score_weight,omitempty"`
	KB4RiskScoreThreshold  *float64 `json:"kb4_risk_score_threshold,omitempty"`
	KB4PhishProneThreshold *float64 `json:"kb4_phish_prone_threshold,omitempty"`

	NCMCriticalPctMultiplier *float64 `json:"ncm_critical_percentage_multiplier,omitempty"`
	NCMCvssMultiplier        *float64 `json:"ncm_cvss_multiplier,omitempty"`

	EDRPendingWeight      *float64 `json:"edr_pending_weight,omitempty"`
	EDRHighSeverityWeight *float64 `json:"edr_high_severity_weight,omitempty"`

	HIBPPendingMultiplier *float64 `json:"hibp_pending_multiplier,omitempty"`
}

// ConfigStore holds the runtime-mutable scoring configuration. Updates
// validate before mutating: an invalid payload leaves the last valid
// state untouched.
type ConfigStore struct {
	mu  sync.RWMutex
	cfg Config
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{cfg: DefaultConfig()}
}

// Snapshot returns a consistent copy for one scoring pass.
func (s *ConfigStore) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateWeights merges the supplied weights over the current set,
// validates, and re-normalizes so the stored weights sum to 1.
func (s *ConfigStore) UpdateWeights(update WeightsUpdate) (Weights, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Weights
	apply(&next.KB4, update.KB4)
	apply(&next.NCM, update.NCM)
	apply(&next.EDR, update.EDR)
	apply(&next.HIBP, update.HIBP)

	for _, w := range []float64{next.KB4, next.NCM, next.EDR, next.HIBP} {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return s.cfg.Weights, fmt.Errorf("invalid weight value: %v", w)
		}
	}

	sum := next.KB4 + next.NCM + next.EDR + next.HIBP
	if sum <= 0 {
		return s.cfg.Weights, fmt.Errorf("weights must have a positive sum, got %v", sum)
	}

	// Normalize whenever the sum materially deviates from 1
	if math.Abs(sum-1) > 0.001 {
		next.KB4 /= sum
		next.NCM /= sum
		next.EDR /= sum
		next.HIBP /= sum
	}

	s.cfg.Weights = next
	return next, nil
}

// UpdateThresholds merges and validates classification thresholds.
// They must stay within [0,100] and strictly descending.
func (s *ConfigStore) UpdateThresholds(update ThresholdsUpdate) (Thresholds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Thresholds
	apply(&next.Critical, update.Critical)
	apply(&next.High, update.High)
	apply(&next.Medium, update.Medium)
	apply(&next.Low, update.Low)

	values := []float64{next.Critical, next.High, next.Medium, next.Low}
	for _, v := range values {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return s.cfg.Thresholds, fmt.Errorf("threshold out of range: %v", v)
		}
	}
	for i := 1; i < len(values); i++ {
		if values[i] >= values[i-1] {
			return s.cfg.Thresholds, fmt.Errorf("thresholds must be strictly descending")
		}
	}

	s.cfg.Thresholds = next
	return next, nil
}

// UpdateFactors merges and validates per-source scoring factors. All
// factors must be finite and non-negative.
func (s *ConfigStore) UpdateFactors(update FactorsUpdate) (Factors, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Factors
	apply(&next.KB4RiskPctMultiplier, update.KB4RiskPctMultiplier)
	apply(&next.KB4AvgScoreWeight, update.KB4AvgScoreWeight)
	apply(&next.KB4RiskScoreThreshold, update.KB4RiskScoreThreshold)
	apply(&next.KB4PhishProneThreshold, update.KB4PhishProneThreshold)
	apply(&next.NCMCriticalPctMultiplier, update.NCMCriticalPctMultiplier)
	apply(&next.NCMCvssMultiplier, update.NCMCvssMultiplier)
	apply(&next.EDRPendingWeight, update.EDRPendingWeight)
	apply(&next.EDRHighSeverityWeight, update.EDRHighSeverityWeight)
	apply(&next.HIBPPendingMultiplier, update.HIBPPendingMultiplier)

	for _, v := range []float64{
		next.KB4RiskPctMultiplier, next.KB4AvgScoreWeight,
		next.KB4RiskScoreThreshold, next.KB4PhishProneThreshold,
		next.NCMCriticalPctMultiplier, next.NCMCvssMultiplier,
		next.EDRPendingWeight, next.EDRHighSeverityWeight,
		next.HIBPPendingMultiplier,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return s.cfg.Factors, fmt.Errorf("invalid factor value: %v", v)
		}
	}

	s.cfg.Factors = next
	return next, nil
}

// Weight returns the configured weight for a source id.
func (w Weights) Weight(source string) float64 {
	switch source {
	case models.SourceIdentity:
		return w.KB4
	case models.SourceDevice:
		return w.NCM
	case models.SourceAlert:
		return w.EDR
	case models.SourceBreach:
		return w.HIBP
	default:
		return 0
	}
}

func apply(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
