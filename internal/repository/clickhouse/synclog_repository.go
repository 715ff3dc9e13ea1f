package clickhouse

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"posture-service/internal/client"
	"posture-service/internal/models"
	"posture-service/internal/util"
)

// SyncLogStore records one immutable audit entry per reconciliation run.
type SyncLogStore interface {
	Record(ctx context.Context, entry models.SyncLogEntry) error
	Recent(ctx context.Context, limit int) ([]models.SyncLogEntry, error)
}

type SyncLogRepository struct {
	client *client.ClickHouseClient
}

func NewSyncLogRepository(ch *client.ClickHouseClient) *SyncLogRepository {
	return &SyncLogRepository{client: ch}
}

// Migrate creates the audit table. MergeTree ordered by time: the log
// is append-only and queried newest-first.
func (r *SyncLogRepository) Migrate(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS sync_log (
			id String,
			source LowCardinality(String),
			status LowCardinality(String),
			record_count Int32,
			duration_ms Int64,
			error String,
			created_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY (created_at)`
	if err := r.client.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create sync_log table: %w", err)
	}
	return nil
}

func (r *SyncLogRepository) Record(ctx context.Context, entry models.SyncLogEntry) error {
	const query = `
		INSERT INTO sync_log (id, source, status, record_count, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if err := r.client.Exec(ctx, query,
		entry.ID, entry.Source, entry.Status, int32(entry.RecordCount),
		entry.DurationMs, entry.Error, entry.CreatedAt); err != nil {
		util.Error("Failed to record sync log entry",
			zap.String("source", entry.Source),
			zap.Error(err))
		return fmt.Errorf("failed to record sync log entry: %w", err)
	}
	return nil
}

func (r *SyncLogRepository) Recent(ctx context.Context, limit int) ([]models.SyncLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	const query = `
		SELECT id, source, status, record_count, duration_ms, error, created_at
		FROM sync_log
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.client.QueryRows(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer rows.Close()

	var entries []models.SyncLogEntry
	for rows.Next() {
		var (
			entry       models.SyncLogEntry
			recordCount int32
			createdAt   time.Time
		)
		if err := rows.Scan(&entry.ID, &entry.Source, &entry.Status,
			&recordCount, &entry.DurationMs, &entry.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync log row: %w", err)
		}
		entry.RecordCount = int(recordCount)
		entry.CreatedAt = createdAt
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
