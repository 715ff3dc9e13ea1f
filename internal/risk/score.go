package risk

import (
	"math"

	"posture-service/internal/models"
)

// Risk levels, most severe first
const (
	LevelCritical = "critical"
	LevelHigh     = "high"
	LevelMedium   = "medium"
	LevelLow      = "low"
	LevelMinimal  = "minimal"
)

// Assessment is the output of one scoring pass over current aggregates.
type Assessment struct {
	SubScores map[string]float64 `json:"sub_scores"`
	Overall   int                `json:"overall"`
	Level     string             `json:"level"`
}

// IdentitySubScore scores the phishing-awareness posture. highRiskPct is
// the share of active identities past either risk cutoff.
func IdentitySubScore(s models.IdentityStats, f Factors) float64 {
	highRiskPct := pct(s.HighRisk, s.Active)
	return clamp(highRiskPct*f.KB4RiskPctMultiplier + s.AvgRiskScore*f.KB4AvgScoreWeight)
}

// DeviceSubScore scores the network-device posture from the share of
// devices at the top update-priority tier and the mean worst-case CVSS.
func DeviceSubScore(s models.DeviceStats, f Factors) float64 {
	criticalPct := pct(s.CriticalPriority, s.Total)
	return clamp(criticalPct*f.NCMCriticalPctMultiplier + s.AvgMaxCVSS*f.NCMCvssMultiplier)
}

// AlertSubScore scores the endpoint-detection posture from unresolved
// and high-severity alert shares.
func AlertSubScore(s models.AlertStats, f Factors) float64 {
	pendingPct := pct(s.Pending, s.Total)
	highSevPct := pct(s.HighSeverity, s.Total)
	return clamp(pendingPct*f.EDRPendingWeight + highSevPct*f.EDRHighSeverityWeight)
}

// BreachSubScore scores exposure from unhandled breached credentials.
func BreachSubScore(s models.BreachStats, f Factors) float64 {
	return clamp(float64(s.Pending) * f.HIBPPendingMultiplier)
}

// Evaluate combines the four sub-scores into the weighted overall score
// and its level. Pure function over the supplied aggregates and config.
func Evaluate(cfg Config, stats models.PostureStats) Assessment {
	subs := map[string]float64{
		models.SourceIdentity: IdentitySubScore(stats.Identity, cfg.Factors),
		models.SourceDevice:   DeviceSubScore(stats.Device, cfg.Factors),
		models.SourceAlert:    AlertSubScore(stats.Alert, cfg.Factors),
		models.SourceBreach:   BreachSubScore(stats.Breach, cfg.Factors),
	}

	var weighted float64
	for source, sub := range subs {
		weighted += sub * cfg.Weights.Weight(source)
	}

	overall := int(math.Round(clamp(weighted)))
	return Assessment{
		SubScores: subs,
		Overall:   overall,
		Level:     Classify(float64(overall), cfg.Thresholds),
	}
}

// Classify maps a score onto its risk level via the step function over
// the configured thresholds.
func Classify(score float64, t Thresholds) string {
	switch {
	case score >= t.Critical:
		return LevelCritical
	case score >= t.High:
		return LevelHigh
	case score >= t.Medium:
		return LevelMedium
	case score >= t.Low:
		return LevelLow
	default:
		return LevelMinimal
	}
}

func pct(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
