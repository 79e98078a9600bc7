package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msgward/msgward/internal/core"
)

// InsertAudit appends an organization-scoped audit record.
func (s *Store) InsertAudit(ctx context.Context, entry core.AuditEntry) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO audit_log (org_id, channel, ip_address, outcome, reason, risk_score, request_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.OrganizationID, string(entry.Channel), entry.IPAddress,
		string(entry.Outcome), nullable(entry.Reason), entry.RiskScore,
		nullable(entry.RequestID), createdAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// ListAudit returns recent audit records for an organization, newest first.
func (s *Store) ListAudit(ctx context.Context, organizationID string, limit int) ([]core.AuditEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return nil, errors.New("organization id is required")
	}

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, org_id, channel, ip_address, outcome, reason, risk_score, request_id, created_at
		FROM audit_log
		WHERE org_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, organizationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []core.AuditEntry{}
	for rows.Next() {
		var (
			entry     core.AuditEntry
			channel   string
			outcome   string
			reason    sql.NullString
			requestID sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&entry.ID, &entry.OrganizationID, &channel,
			&entry.IPAddress, &outcome, &reason, &entry.RiskScore,
			&requestID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Channel = core.Channel(channel)
		entry.Outcome = core.Outcome(outcome)
		entry.Reason = reason.String
		entry.RequestID = requestID.String
		entry.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, nil
}
