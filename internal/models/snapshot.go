package models

import "time"

// DailySnapshot is one point-in-time rollup per calendar date, captured
// for trend analysis. SnapshotDate is truncated to midnight in the
// configured reference timezone and unique; a recapture for the same
// date overwrites the row.
type DailySnapshot struct {
	ID           int64     `db:"id" json:"id"`
	SnapshotDate time.Time `db:"snapshot_date" json:"snapshot_date"`

	IdentityTotal    int     `db:"identity_total" json:"identity_total"`
	IdentityHighRisk int     `db:"identity_high_risk" json:"identity_high_risk"`
	IdentityAvgScore float64 `db:"identity_avg_score" json:"identity_avg_score"`

	DeviceTotal    int     `db:"device_total" json:"device_total"`
	DeviceCritical int     `db:"device_critical" json:"device_critical"`
	DeviceAvgCVSS  float64 `db:"device_avg_cvss" json:"device_avg_cvss"`

	AlertTotal   int `db:"alert_total" json:"alert_total"`
	AlertPending int `db:"alert_pending" json:"alert_pending"`
	AlertHighSev int `db:"alert_high_sev" json:"alert_high_sev"`

	BreachTotal   int `db:"breach_total" json:"breach_total"`
	BreachPending int `db:"breach_pending" json:"breach_pending"`

	OverallScore int       `db:"overall_score" json:"overall_score"`
	RiskLevel    string    `db:"risk_level" json:"risk_level"`
	CapturedAt   time.Time `db:"captured_at" json:"captured_at"`
}
