package models

import "time"

// Source identifiers for the four external feeds
const (
	SourceIdentity = "kb4"
	SourceDevice   = "ncm"
	SourceAlert    = "edr"
	SourceBreach   = "hibp"

	// ScopeAll addresses every source at once (orchestrated runs,
	// cache invalidation, sync events)
	ScopeAll = "all"
)

// Sources lists the four feeds in their canonical order.
var Sources = []string{SourceIdentity, SourceDevice, SourceAlert, SourceBreach}

// ValidSource reports whether s names one of the four feeds.
func ValidSource(s string) bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

// Sync outcomes recorded in the audit log
const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SyncLogEntry is one immutable audit row per reconciliation run.
type SyncLogEntry struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Status      string    `json:"status"`
	RecordCount int       `json:"record_count"`
	DurationMs  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SyncResult is the outcome of one reconciler run, returned to callers
// and mirrored into the audit log.
type SyncResult struct {
	Source   string        `json:"source"`
	Success  bool          `json:"success"`
	Count    int           `json:"count"`
	Duration time.Duration `json:"-"`
	Error    string        `json:"error,omitempty"`

	DurationMs int64 `json:"duration_ms"`
}

// CombinedSyncResult aggregates an orchestrated run over all sources.
type CombinedSyncResult struct {
	Results    []SyncResult `json:"results"`
	Success    bool         `json:"success"`
	TotalCount int          `json:"total_count"`
	DurationMs int64        `json:"duration_ms"`
	StartedAt  time.Time    `json:"started_at"`
}

// SyncStatus is the orchestrator's in-memory state, reset on restart.
type SyncStatus struct {
	IsSyncing      bool                `json:"is_syncing"`
	LastSyncTime   *time.Time          `json:"last_sync_time,omitempty"`
	LastSyncResult *CombinedSyncResult `json:"last_sync_result,omitempty"`
}
