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

// LedgerQuery selects ledger rows for the admin CLI and API.
type LedgerQuery struct {
	All            bool
	OrganizationID string
	IPAddress      string
	Channel        string
	Limit          int
}

func (q LedgerQuery) Validate() error {
	if q.All {
		return nil
	}
	if strings.TrimSpace(q.OrganizationID) != "" {
		return nil
	}
	if strings.TrimSpace(q.IPAddress) != "" {
		return nil
	}
	return errors.New("must specify --all, --org, or --ip")
}

func (q LedgerQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	clauses := []string{}
	args := []any{}

	if org := strings.TrimSpace(q.OrganizationID); org != "" {
		clauses = append(clauses, "org_id = ?")
		args = append(args, org)
	}
	if ip := strings.TrimSpace(q.IPAddress); ip != "" {
		clauses = append(clauses, "ip_address = ?")
		args = append(args, ip)
	}
	if channel := strings.TrimSpace(q.Channel); channel != "" {
		clauses = append(clauses, "channel = ?")
		args = append(args, channel)
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args, nil
}

// ListEntries returns ledger rows matching the query, newest first.
func (s *Store) ListEntries(ctx context.Context, q LedgerQuery) ([]core.RateLimitEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, ip_address, org_id, channel, device_hash, session_token,
			message_hash, user_agent_hash, outcome, challenge_state,
			reason, risk_score, request_id, created_at
		FROM abuse_entries
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []core.RateLimitEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	return entries, nil
}

// CountEntries returns the number of ledger rows matching the query.
func (s *Store) CountEntries(ctx context.Context, q LedgerQuery) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM abuse_entries %s
	`, where), args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return count, nil
}

// PurgeEntries deletes ledger rows matching the query and reports how many
// were removed. This is the explicit admin escape hatch; routine retention
// goes through Cleanup.
func (s *Store) PurgeEntries(ctx context.Context, q LedgerQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM abuse_entries %s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("purge ledger entries: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge ledger entries: %w", err)
	}
	return affected, nil
}

func scanEntry(rows *sql.Rows) (core.RateLimitEntry, error) {
	var (
		entry          core.RateLimitEntry
		channel        string
		outcome        string
		challengeState string
		deviceHash     sql.NullString
		sessionToken   sql.NullString
		messageHash    sql.NullString
		userAgentHash  sql.NullString
		reason         sql.NullString
		requestID      sql.NullString
		createdAt      int64
	)

	if err := rows.Scan(&entry.ID, &entry.IPAddress, &entry.OrganizationID,
		&channel, &deviceHash, &sessionToken, &messageHash, &userAgentHash,
		&outcome, &challengeState, &reason, &entry.RiskScore, &requestID,
		&createdAt); err != nil {
		return core.RateLimitEntry{}, fmt.Errorf("scan ledger entry: %w", err)
	}

	entry.Channel = core.Channel(channel)
	entry.Outcome = core.Outcome(outcome)
	entry.ChallengeState = core.ChallengeState(challengeState)
	entry.DeviceHash = deviceHash.String
	entry.SessionToken = sessionToken.String
	entry.MessageHash = messageHash.String
	entry.UserAgentHash = userAgentHash.String
	entry.Reason = reason.String
	entry.RequestID = requestID.String
	entry.CreatedAt = time.Unix(createdAt, 0).UTC()

	return entry, nil
}
