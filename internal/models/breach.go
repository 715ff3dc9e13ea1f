package models

import "time"

// Breach workflow statuses, owned by analysts after creation
const (
	BreachStatusNew           = "new"
	BreachStatusNotified      = "notified"
	BreachStatusPasswordReset = "password_reset"
	BreachStatusResolved      = "resolved"
)

// BreachRecord is one email x breach-event pair from the credential
// monitor. Natural key: (Email, BreachName). Everything except SyncedAt
// is immutable once first recorded.
type BreachRecord struct {
	ID           int64      `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	BreachName   string     `db:"breach_name" json:"breach_name"`
	Domain       string     `db:"domain" json:"domain"`
	Alias        *string    `db:"alias" json:"alias,omitempty"`
	BreachDate   *time.Time `db:"breach_date" json:"breach_date,omitempty"`
	DiscoveredAt time.Time  `db:"discovered_at" json:"discovered_at"`
	Status       string     `db:"status" json:"status"`
	SyncedAt     time.Time  `db:"synced_at" json:"synced_at"`
}
