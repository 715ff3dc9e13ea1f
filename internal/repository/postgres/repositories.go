package postgres

import (
	"context"
	"time"

	"posture-service/internal/models"
)

// Store interfaces live next to their implementations so the service
// layer can be exercised against in-memory fakes in tests.

// IdentityStore persists the append-only identity-risk table.
type IdentityStore interface {
	// UpsertBatch writes one batch atomically; existing user ids are
	// updated in place, new ones created.
	UpsertBatch(ctx context.Context, records []models.IdentityRiskRecord) error
	// Stats aggregates the table; the thresholds define who counts as
	// high risk.
	Stats(ctx context.Context, riskThreshold, phishThreshold float64) (models.IdentityStats, error)
}

// DeviceStore persists the mirrored device table.
type DeviceStore interface {
	// ReplaceAll makes the table exactly equal the target set in one
	// transaction: absent keys are deleted, present keys upserted with
	// all feed-carried fields replaced.
	ReplaceAll(ctx context.Context, devices []models.DeviceRecord) (created, updated, deleted int, err error)
	Stats(ctx context.Context) (models.DeviceStats, error)
}

// AlertStore persists detection events.
type AlertStore interface {
	// ExistingKeys returns every persisted natural key in one query.
	ExistingKeys(ctx context.Context) (map[string]bool, error)
	// UpsertBatch creates new keys with workflow status "new"; for
	// existing keys only the verdict and sync timestamp change.
	UpsertBatch(ctx context.Context, alerts []models.AlertRecord) error
	Stats(ctx context.Context) (models.AlertStats, error)
}

// BreachStore persists breached-credential records.
type BreachStore interface {
	// UpsertBatch inserts new (email, breach) pairs; conflicts refresh
	// only the sync timestamp.
	UpsertBatch(ctx context.Context, breaches []models.BreachRecord) error
	Stats(ctx context.Context) (models.BreachStats, error)
}

// SnapshotStore persists one rollup row per calendar date.
type SnapshotStore interface {
	// Upsert atomically writes the snapshot for its date, overwriting
	// any prior capture for the same date.
	Upsert(ctx context.Context, snap models.DailySnapshot) error
	List(ctx context.Context, from, to time.Time) ([]models.DailySnapshot, error)
}
