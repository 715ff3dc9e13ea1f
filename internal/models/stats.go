package models

// IdentityStats aggregates the identity-risk table. HighRisk counts
// active identities at or above either configured threshold.
type IdentityStats struct {
	Total         int     `db:"total" json:"total"`
	Active        int     `db:"active" json:"active"`
	Archived      int     `db:"archived" json:"archived"`
	HighRisk      int     `db:"high_risk" json:"high_risk"`
	AvgRiskScore  float64 `db:"avg_risk_score" json:"avg_risk_score"`
	AvgPhishProne float64 `db:"avg_phish_prone" json:"avg_phish_prone"`
}

// DeviceStats aggregates the device table.
type DeviceStats struct {
	Total            int     `db:"total" json:"total"`
	CriticalPriority int     `db:"critical_priority" json:"critical_priority"`
	TotalCVEs        int     `db:"total_cves" json:"total_cves"`
	ActiveExploits   int     `db:"active_exploits" json:"active_exploits"`
	AvgMaxCVSS       float64 `db:"avg_max_cvss" json:"avg_max_cvss"`
}

// AlertStats aggregates the alert table.
type AlertStats struct {
	Total        int `db:"total" json:"total"`
	Pending      int `db:"pending" json:"pending"`
	HighSeverity int `db:"high_severity" json:"high_severity"`
	Resolved     int `db:"resolved" json:"resolved"`
}

// BreachStats aggregates the breach table.
type BreachStats struct {
	Total   int `db:"total" json:"total"`
	Pending int `db:"pending" json:"pending"`
}

// PostureStats bundles all four aggregates for scoring and snapshots.
type PostureStats struct {
	Identity IdentityStats `json:"identity"`
	Device   DeviceStats   `json:"device"`
	Alert    AlertStats    `json:"alert"`
	Breach   BreachStats   `json:"breach"`
}
