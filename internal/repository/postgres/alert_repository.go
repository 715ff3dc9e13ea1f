package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"posture-service/internal/models"
)

type AlertRepository struct {
	client *Client
}

func NewAlertRepository(client *Client) *AlertRepository {
	return &AlertRepository{client: client}
}

type alertKeyRow struct {
	Hostname   string    `db:"hostname"`
	DetectedAt time.Time `db:"detected_at"`
	FileHash   string    `db:"file_hash"`
}

// ExistingKeys loads every persisted natural key in a single query so
// the reconciler never does per-row lookups.
func (r *AlertRepository) ExistingKeys(ctx context.Context) (map[string]bool, error) {
	var rows []alertKeyRow
	if err := r.client.db.SelectContext(ctx, &rows,
		`SELECT hostname, detected_at, file_hash FROM alert_records`); err != nil {
		return nil, fmt.Errorf("failed to load alert keys: %w", err)
	}

	keys := make(map[string]bool, len(rows))
	for _, row := range rows {
		keys[models.AlertRecord{
			Hostname:   row.Hostname,
			DetectedAt: row.DetectedAt,
			FileHash:   row.FileHash,
		}.Key()] = true
	}
	return keys, nil
}

const upsertAlertSQL = `
	INSERT INTO alert_records (
		hostname, detected_at, file_hash, severity, rule_name,
		domain, file_path, verdict, status, synced_at
	) VALUES (
		:hostname, :detected_at, :file_hash, :severity, :rule_name,
		:domain, :file_path, :verdict, :status, :synced_at
	)
	ON CONFLICT (hostname, detected_at, file_hash) DO UPDATE SET
		verdict = EXCLUDED.verdict,
		synced_at = EXCLUDED.synced_at`

// UpsertBatch writes one batch atomically. The conflict clause is what
// keeps analyst workflow fields (status, assignee, resolved_at) out of
// sync's reach.
func (r *AlertRepository) UpsertBatch(ctx context.Context, alerts []models.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}
	return r.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i := range alerts {
			if _, err := tx.NamedExecContext(ctx, upsertAlertSQL, &alerts[i]); err != nil {
				return fmt.Errorf("failed to upsert alert %s: %w", alerts[i].Hostname, err)
			}
		}
		return nil
	})
}

func (r *AlertRepository) Stats(ctx context.Context) (models.AlertStats, error) {
	const query = `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status IN ('new', 'investigating')) AS pending,
			COUNT(*) FILTER (WHERE severity IN ('High', 'Critical')) AS high_severity,
			COUNT(*) FILTER (WHERE status IN ('resolved', 'false_positive')) AS resolved
		FROM alert_records`

	var stats models.AlertStats
	if err := r.client.db.GetContext(ctx, &stats, query); err != nil {
		return models.AlertStats{}, fmt.Errorf("failed to aggregate alert stats: %w", err)
	}
	return stats, nil
}
