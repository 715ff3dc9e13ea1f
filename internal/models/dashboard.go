package models

import "time"

// SourceBreakdown is one source's contribution to the dashboard.
type SourceBreakdown struct {
	SubScore float64     `json:"sub_score"`
	Weight   float64     `json:"weight"`
	Stats    interface{} `json:"stats"`
}

// Dashboard is the composite risk view served to the UI.
type Dashboard struct {
	OverallScore int                        `json:"overall_score"`
	RiskLevel    string                     `json:"risk_level"`
	Sources      map[string]SourceBreakdown `json:"sources"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}
