package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"posture-service/internal/models"
)

type IdentityRepository struct {
	client *Client
}

func NewIdentityRepository(client *Client) *IdentityRepository {
	return &IdentityRepository{client: client}
}

const upsertIdentitySQL = `
	INSERT INTO identity_risk_records (
		user_id, email, first_name, last_name, department, division,
		location, title, manager_name, manager_email, status,
		current_risk_score, phish_prone_pct, last_seen,
		first_synced_at, synced_at
	) VALUES (
		:user_id, :email, :first_name, :last_name, :department, :division,
		:location, :title, :manager_name, :manager_email, :status,
		:current_risk_score, :phish_prone_pct, :last_seen,
		:first_synced_at, :synced_at
	)
	ON CONFLICT (user_id) DO UPDATE SET
		email = EXCLUDED.email,
		first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		department = EXCLUDED.department,
		division = EXCLUDED.division,
		location = EXCLUDED.location,
		title = EXCLUDED.title,
		manager_name = EXCLUDED.manager_name,
		manager_email = EXCLUDED.manager_email,
		status = EXCLUDED.status,
		current_risk_score = EXCLUDED.current_risk_score,
		phish_prone_pct = EXCLUDED.phish_prone_pct,
		last_seen = EXCLUDED.last_seen,
		synced_at = EXCLUDED.synced_at`

// UpsertBatch writes one batch inside a single transaction. The feed is
// user-level incremental, so rows are never deleted here; first_synced_at
// survives updates.
func (r *IdentityRepository) UpsertBatch(ctx context.Context, records []models.IdentityRiskRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i := range records {
			if _, err := tx.NamedExecContext(ctx, upsertIdentitySQL, &records[i]); err != nil {
				return fmt.Errorf("failed to upsert identity %s: %w", records[i].UserID, err)
			}
		}
		return nil
	})
}

func (r *IdentityRepository) Stats(ctx context.Context, riskThreshold, phishThreshold float64) (models.IdentityStats, error) {
	const query = `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'active') AS active,
			COUNT(*) FILTER (WHERE status = 'archived') AS archived,
			COUNT(*) FILTER (WHERE status = 'active'
				AND (current_risk_score >= $1 OR phish_prone_pct >= $2)) AS high_risk,
			COALESCE(AVG(current_risk_score) FILTER (WHERE status = 'active'), 0) AS avg_risk_score,
			COALESCE(AVG(phish_prone_pct) FILTER (WHERE status = 'active'), 0) AS avg_phish_prone
		FROM identity_risk_records`

	var stats models.IdentityStats
	if err := r.client.db.GetContext(ctx, &stats, query, riskThreshold, phishThreshold); err != nil {
		return models.IdentityStats{}, fmt.Errorf("failed to aggregate identity stats: %w", err)
	}
	return stats, nil
}
