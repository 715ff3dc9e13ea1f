package postgres

import (
	"context"
	"fmt"
	"time"

	"posture-service/internal/models"
)

type SnapshotRepository struct {
	client *Client
}

func NewSnapshotRepository(client *Client) *SnapshotRepository {
	return &SnapshotRepository{client: client}
}

const upsertSnapshotSQL = `
	INSERT INTO daily_snapshots (
		snapshot_date, identity_total, identity_high_risk, identity_avg_score,
		device_total, device_critical, device_avg_cvss,
		alert_total, alert_pending, alert_high_sev,
		breach_total, breach_pending,
		overall_score, risk_level, captured_at
	) VALUES (
		:snapshot_date, :identity_total, :identity_high_risk, :identity_avg_score,
		:device_total, :device_critical, :device_avg_cvss,
		:alert_total, :alert_pending, :alert_high_sev,
		:breach_total, :breach_pending,
		:overall_score, :risk_level, :captured_at
	)
	ON CONFLICT (snapshot_date) DO UPDATE SET
		identity_total = EXCLUDED.identity_total,
		identity_high_risk = EXCLUDED.identity_high_risk,
		identity_avg_score = EXCLUDED.identity_avg_score,
		device_total = EXCLUDED.device_total,
		device_critical = EXCLUDED.device_critical,
		device_avg_cvss = EXCLUDED.device_avg_cvss,
		alert_total = EXCLUDED.alert_total,
		alert_pending = EXCLUDED.alert_pending,
		alert_high_sev = EXCLUDED.alert_high_sev,
		breach_total = EXCLUDED.breach_total,
		breach_pending = EXCLUDED.breach_pending,
		overall_score = EXCLUDED.overall_score,
		risk_level = EXCLUDED.risk_level,
		captured_at = EXCLUDED.captured_at`

// Upsert writes the snapshot for its date. The unique constraint plus
// the atomic conflict clause is what prevents duplicate rows under
// concurrent capture; there is deliberately no check-then-insert here.
func (r *SnapshotRepository) Upsert(ctx context.Context, snap models.DailySnapshot) error {
	if _, err := r.client.db.NamedExecContext(ctx, upsertSnapshotSQL, &snap); err != nil {
		return fmt.Errorf("failed to upsert snapshot for %s: %w",
			snap.SnapshotDate.Format("2006-01-02"), err)
	}
	return nil
}

func (r *SnapshotRepository) List(ctx context.Context, from, to time.Time) ([]models.DailySnapshot, error) {
	var snaps []models.DailySnapshot
	if err := r.client.db.SelectContext(ctx, &snaps,
		`SELECT * FROM daily_snapshots
		 WHERE snapshot_date >= $1 AND snapshot_date <= $2
		 ORDER BY snapshot_date ASC`, from, to); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snaps, nil
}
