package postgres

import (
	"context"
	"fmt"
)

// The entity tables are the durable contract of the pipeline: natural
// keys are enforced here, not in application code, so concurrent syncs
// cannot create duplicates.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS identity_risk_records (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		first_name TEXT,
		last_name TEXT,
		department TEXT,
		division TEXT,
		location TEXT,
		title TEXT,
		manager_name TEXT,
		manager_email TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		current_risk_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		phish_prone_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_seen TIMESTAMPTZ,
		first_synced_at TIMESTAMPTZ NOT NULL,
		synced_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS device_records (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		ip TEXT,
		model TEXT,
		firmware_series TEXT,
		firmware_version TEXT,
		update_priority TEXT NOT NULL DEFAULT 'P3-Monitor',
		total_cves INT NOT NULL DEFAULT 0,
		active_exploits INT NOT NULL DEFAULT 0,
		critical_cves INT NOT NULL DEFAULT 0,
		max_cvss DOUBLE PRECISION NOT NULL DEFAULT 0,
		remediation TEXT,
		synced_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS device_records_name_ip_idx
		ON device_records (name, COALESCE(ip, ''))`,

	`CREATE TABLE IF NOT EXISTS alert_records (
		id BIGSERIAL PRIMARY KEY,
		hostname TEXT NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL,
		file_hash TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL DEFAULT 'Low',
		rule_name TEXT NOT NULL DEFAULT '',
		domain TEXT,
		file_path TEXT,
		verdict TEXT,
		status TEXT NOT NULL DEFAULT 'new',
		assignee TEXT,
		resolved_at TIMESTAMPTZ,
		synced_at TIMESTAMPTZ NOT NULL,
		UNIQUE (hostname, detected_at, file_hash)
	)`,

	`CREATE TABLE IF NOT EXISTS breach_records (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL,
		breach_name TEXT NOT NULL,
		domain TEXT NOT NULL DEFAULT '',
		alias TEXT,
		breach_date DATE,
		discovered_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		synced_at TIMESTAMPTZ NOT NULL,
		UNIQUE (email, breach_name)
	)`,

	`CREATE TABLE IF NOT EXISTS daily_snapshots (
		id BIGSERIAL PRIMARY KEY,
		snapshot_date DATE NOT NULL UNIQUE,
		identity_total INT NOT NULL DEFAULT 0,
		identity_high_risk INT NOT NULL DEFAULT 0,
		identity_avg_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		device_total INT NOT NULL DEFAULT 0,
		device_critical INT NOT NULL DEFAULT 0,
		device_avg_cvss DOUBLE PRECISION NOT NULL DEFAULT 0,
		alert_total INT NOT NULL DEFAULT 0,
		alert_pending INT NOT NULL DEFAULT 0,
		alert_high_sev INT NOT NULL DEFAULT 0,
		breach_total INT NOT NULL DEFAULT 0,
		breach_pending INT NOT NULL DEFAULT 0,
		overall_score INT NOT NULL DEFAULT 0,
		risk_level TEXT NOT NULL DEFAULT 'minimal',
		captured_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies the schema. All statements are idempotent.
func (c *Client) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
	}
	return nil
}
