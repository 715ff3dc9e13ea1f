package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"posture-service/internal/models"
)

type BreachRepository struct {
	client *Client
}

func NewBreachRepository(client *Client) *BreachRepository {
	return &BreachRepository{client: client}
}

const upsertBreachSQL = `
	INSERT INTO breach_records (
		email, breach_name, domain, alias, breach_date,
		discovered_at, status, synced_at
	) VALUES (
		:email, :breach_name, :domain, :alias, :breach_date,
		:discovered_at, :status, :synced_at
	)
	ON CONFLICT (email, breach_name) DO UPDATE SET
		synced_at = EXCLUDED.synced_at`

// UpsertBatch writes one batch atomically. Everything but synced_at is
// immutable after first insert, even if the feed later reports
// different values for the same (email, breach) pair.
func (r *BreachRepository) UpsertBatch(ctx context.Context, breaches []models.BreachRecord) error {
	if len(breaches) == 0 {
		return nil
	}
	return r.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i := range breaches {
			if _, err := tx.NamedExecContext(ctx, upsertBreachSQL, &breaches[i]); err != nil {
				return fmt.Errorf("failed to upsert breach %s/%s: %w",
					breaches[i].Email, breaches[i].BreachName, err)
			}
		}
		return nil
	})
}

func (r *BreachRepository) Stats(ctx context.Context) (models.BreachStats, error) {
	const query = `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'new') AS pending
		FROM breach_records`

	var stats models.BreachStats
	if err := r.client.db.GetContext(ctx, &stats, query); err != nil {
		return models.BreachStats{}, fmt.Errorf("failed to aggregate breach stats: %w", err)
	}
	return stats, nil
}
