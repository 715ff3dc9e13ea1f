package models

import "time"

// Alert severities as reported by the endpoint-detection feed
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// Alert workflow statuses, owned by analysts after creation
const (
	AlertStatusNew           = "new"
	AlertStatusInvestigating = "investigating"
	AlertStatusResolved      = "resolved"
	AlertStatusFalsePositive = "false_positive"
)

// AlertRecord is one detection event. Natural key: (Hostname, DetectedAt,
// FileHash), where FileHash is "" when the detection has no file artifact.
// Re-sync only refreshes Verdict and SyncedAt; status and assignee belong
// to the analyst workflow.
type AlertRecord struct {
	ID         int64      `db:"id" json:"id"`
	Hostname   string     `db:"hostname" json:"hostname"`
	DetectedAt time.Time  `db:"detected_at" json:"detected_at"`
	FileHash   string     `db:"file_hash" json:"file_hash"`
	Severity   string     `db:"severity" json:"severity"`
	RuleName   string     `db:"rule_name" json:"rule_name"`
	Domain     *string    `db:"domain" json:"domain,omitempty"`
	FilePath   *string    `db:"file_path" json:"file_path,omitempty"`
	Verdict    *string    `db:"verdict" json:"verdict,omitempty"`
	Status     string     `db:"status" json:"status"`
	Assignee   *string    `db:"assignee" json:"assignee,omitempty"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	SyncedAt   time.Time  `db:"synced_at" json:"synced_at"`
}

// Key returns the natural key used to match incoming feed rows against
// persisted alerts.
func (a AlertRecord) Key() string {
	return a.Hostname + "|" + a.DetectedAt.UTC().Format(time.RFC3339) + "|" + a.FileHash
}

// AlertPending reports whether the alert still needs analyst attention.
func AlertPending(status string) bool {
	return status == AlertStatusNew || status == AlertStatusInvestigating
}
