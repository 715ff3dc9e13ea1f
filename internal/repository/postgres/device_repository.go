package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"posture-service/internal/models"
)

type DeviceRepository struct {
	client *Client
}

func NewDeviceRepository(client *Client) *DeviceRepository {
	return &DeviceRepository{client: client}
}

type deviceKeyRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	IP   string `db:"ip"`
}

const insertDeviceSQL = `
	INSERT INTO device_records (
		name, ip, model, firmware_series, firmware_version,
		update_priority, total_cves, active_exploits, critical_cves,
		max_cvss, remediation, synced_at
	) VALUES (
		:name, :ip, :model, :firmware_series, :firmware_version,
		:update_priority, :total_cves, :active_exploits, :critical_cves,
		:max_cvss, :remediation, :synced_at
	)`

const updateDeviceSQL = `
	UPDATE device_records SET
		model = :model,
		firmware_series = :firmware_series,
		firmware_version = :firmware_version,
		update_priority = :update_priority,
		total_cves = :total_cves,
		active_exploits = :active_exploits,
		critical_cves = :critical_cves,
		max_cvss = :max_cvss,
		remediation = :remediation,
		synced_at = :synced_at
	WHERE id = :id`

// ReplaceAll mirrors the latest feed into the table in one transaction:
// persisted keys absent from the target set are deleted, the rest are
// fully replaced. The feed is already a complete current-state snapshot
// upstream, which is what justifies the deletes.
func (r *DeviceRepository) ReplaceAll(ctx context.Context, devices []models.DeviceRecord) (created, updated, deleted int, err error) {
	err = r.client.WithTx(ctx, func(tx *sqlx.Tx) error {
		var existing []deviceKeyRow
		if err := tx.SelectContext(ctx, &existing,
			`SELECT id, name, COALESCE(ip, '') AS ip FROM device_records`); err != nil {
			return fmt.Errorf("failed to load existing device keys: %w", err)
		}

		existingIDs := make(map[string]int64, len(existing))
		for _, row := range existing {
			existingIDs[row.Name+"|"+row.IP] = row.ID
		}

		targetKeys := make(map[string]bool, len(devices))
		for _, d := range devices {
			targetKeys[d.Key()] = true
		}

		var staleIDs []int64
		for key, id := range existingIDs {
			if !targetKeys[key] {
				staleIDs = append(staleIDs, id)
			}
		}
		if len(staleIDs) > 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM device_records WHERE id = ANY($1)`, pq.Array(staleIDs)); err != nil {
				return fmt.Errorf("failed to delete stale devices: %w", err)
			}
			deleted = len(staleIDs)
		}

		for i := range devices {
			if id, ok := existingIDs[devices[i].Key()]; ok {
				devices[i].ID = id
				if _, err := tx.NamedExecContext(ctx, updateDeviceSQL, &devices[i]); err != nil {
					return fmt.Errorf("failed to update device %s: %w", devices[i].Name, err)
				}
				updated++
			} else {
				if _, err := tx.NamedExecContext(ctx, insertDeviceSQL, &devices[i]); err != nil {
					return fmt.Errorf("failed to create device %s: %w", devices[i].Name, err)
				}
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return created, updated, deleted, nil
}

func (r *DeviceRepository) Stats(ctx context.Context) (models.DeviceStats, error) {
	const query = `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE update_priority = 'P0-Immediate') AS critical_priority,
			COALESCE(SUM(total_cves), 0) AS total_cves,
			COALESCE(SUM(active_exploits), 0) AS active_exploits,
			COALESCE(AVG(max_cvss), 0) AS avg_max_cvss
		FROM device_records`

	var stats models.DeviceStats
	if err := r.client.db.GetContext(ctx, &stats, query); err != nil {
		return models.DeviceStats{}, fmt.Errorf("failed to aggregate device stats: %w", err)
	}
	return stats, nil
}
