package models

import "time"

// Identity lifecycle statuses as reported by the training platform
const (
	IdentityStatusActive   = "active"
	IdentityStatusArchived = "archived"
)

// IdentityRiskRecord is one person in the phishing-awareness training
// platform. Natural key: UserID. Sync never deletes these rows.
type IdentityRiskRecord struct {
	ID               int64      `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	Email            string     `db:"email" json:"email"`
	FirstName        *string    `db:"first_name" json:"first_name,omitempty"`
	LastName         *string    `db:"last_name" json:"last_name,omitempty"`
	Department       *string    `db:"department" json:"department,omitempty"`
	Division         *string    `db:"division" json:"division,omitempty"`
	Location         *string    `db:"location" json:"location,omitempty"`
	Title            *string    `db:"title" json:"title,omitempty"`
	ManagerName      *string    `db:"manager_name" json:"manager_name,omitempty"`
	ManagerEmail     *string    `db:"manager_email" json:"manager_email,omitempty"`
	Status           string     `db:"status" json:"status"`
	CurrentRiskScore float64    `db:"current_risk_score" json:"current_risk_score"`
	PhishPronePct    float64    `db:"phish_prone_pct" json:"phish_prone_pct"`
	LastSeen         *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	FirstSyncedAt    time.Time  `db:"first_synced_at" json:"first_synced_at"`
	SyncedAt         time.Time  `db:"synced_at" json:"synced_at"`
}
