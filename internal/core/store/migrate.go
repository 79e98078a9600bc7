package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS abuse_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ip_address TEXT NOT NULL,
		org_id TEXT NOT NULL,
		channel TEXT NOT NULL,
		device_hash TEXT,
		session_token TEXT,
		message_hash TEXT,
		user_agent_hash TEXT,
		outcome TEXT NOT NULL,
		challenge_state TEXT NOT NULL,
		reason TEXT,
		risk_score INTEGER NOT NULL DEFAULT 0,
		request_id TEXT,
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_abuse_entries_ip ON abuse_entries(ip_address, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_abuse_entries_device ON abuse_entries(device_hash, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_abuse_entries_session ON abuse_entries(session_token, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_abuse_entries_message ON abuse_entries(org_id, channel, message_hash, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_abuse_entries_daily ON abuse_entries(org_id, channel, created_at);`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		tier TEXT NOT NULL DEFAULT 'free',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		org_id TEXT NOT NULL,
		channel TEXT NOT NULL,
		ip_address TEXT NOT NULL,
		outcome TEXT NOT NULL,
		reason TEXT,
		risk_score INTEGER NOT NULL DEFAULT 0,
		request_id TEXT,
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_log_org ON audit_log(org_id, created_at);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
