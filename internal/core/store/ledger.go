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

// InsertEntry appends a ledger row and returns its id.
func (s *Store) InsertEntry(ctx context.Context, entry core.RateLimitEntry) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	ip := strings.TrimSpace(entry.IPAddress)
	if ip == "" {
		return 0, errors.New("ip address is required")
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	result, err := s.DB.ExecContext(ctx, `
		INSERT INTO abuse_entries (
			ip_address, org_id, channel, device_hash, session_token,
			message_hash, user_agent_hash, outcome, challenge_state,
			reason, risk_score, request_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ip, entry.OrganizationID, string(entry.Channel),
		nullable(entry.DeviceHash), nullable(entry.SessionToken),
		nullable(entry.MessageHash), nullable(entry.UserAgentHash),
		string(entry.Outcome), string(entry.ChallengeState),
		nullable(entry.Reason), entry.RiskScore, nullable(entry.RequestID),
		createdAt.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}
	return id, nil
}

// CountWindows gathers the six sliding-window counts used for a decision.
// All counts re-read the ledger; there is no cached state.
func (s *Store) CountWindows(ctx context.Context, q core.WindowQuery) (core.WindowCounts, error) {
	if s == nil || s.DB == nil {
		return core.WindowCounts{}, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	burstCutoff := now.Add(-core.WindowBurst).Unix()
	minuteCutoff := now.Add(-core.WindowMinute).Unix()
	dayCutoff := now.Add(-core.WindowDay).Unix()

	var counts core.WindowCounts
	var err error

	counts.Burst, err = s.countWhere(ctx,
		"ip_address = ? AND created_at > ?", q.IPAddress, burstCutoff)
	if err != nil {
		return core.WindowCounts{}, err
	}

	counts.IPMinute, err = s.countWhere(ctx,
		"ip_address = ? AND created_at > ?", q.IPAddress, minuteCutoff)
	if err != nil {
		return core.WindowCounts{}, err
	}

	if q.DeviceHash != "" {
		counts.DeviceMinute, err = s.countWhere(ctx,
			"device_hash = ? AND created_at > ?", q.DeviceHash, minuteCutoff)
		if err != nil {
			return core.WindowCounts{}, err
		}
	}

	if q.SessionToken != "" {
		counts.SessionMinute, err = s.countWhere(ctx,
			"session_token = ? AND created_at > ?", q.SessionToken, minuteCutoff)
		if err != nil {
			return core.WindowCounts{}, err
		}
	}

	if q.MessageHash != "" {
		counts.MessageRepeats, err = s.countWhere(ctx,
			"org_id = ? AND channel = ? AND message_hash = ? AND created_at > ?",
			q.OrganizationID, string(q.Channel), q.MessageHash, minuteCutoff)
		if err != nil {
			return core.WindowCounts{}, err
		}
	}

	counts.Daily, err = s.countWhere(ctx,
		"org_id = ? AND channel = ? AND created_at > ?",
		q.OrganizationID, string(q.Channel), dayCutoff)
	if err != nil {
		return core.WindowCounts{}, err
	}

	return counts, nil
}

// OldestInWindow returns the timestamp of the oldest ledger entry still
// inside the dimension's window, or nil when the window is empty. The
// decision engine uses it to compute the retry-after hint.
func (s *Store) OldestInWindow(ctx context.Context, q core.WindowQuery, dim core.WindowDimension) (*time.Time, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	cutoff := now.Add(-dim.Window()).Unix()

	var row *sql.Row
	switch dim {
	case core.DimensionDaily:
		row = s.DB.QueryRowContext(ctx, `
			SELECT MIN(created_at) FROM abuse_entries
			WHERE org_id = ? AND channel = ? AND created_at > ?
		`, q.OrganizationID, string(q.Channel), cutoff)
	default:
		row = s.DB.QueryRowContext(ctx, `
			SELECT MIN(created_at) FROM abuse_entries
			WHERE ip_address = ? AND created_at > ?
		`, q.IPAddress, cutoff)
	}

	var oldest sql.NullInt64
	if err := row.Scan(&oldest); err != nil {
		return nil, fmt.Errorf("oldest in window: %w", err)
	}
	if !oldest.Valid {
		return nil, nil
	}

	value := time.Unix(oldest.Int64, 0).UTC()
	return &value, nil
}

// Cleanup deletes ledger entries older than the cutoff, matched by IP and,
// when present, by the device-hash and session-token indexes. Candidate ids
// from the three lookups are de-duplicated before deletion.
func (s *Store) Cleanup(ctx context.Context, ipAddress, deviceHash, sessionToken string, before time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	ipAddress = strings.TrimSpace(ipAddress)
	if ipAddress == "" {
		return 0, errors.New("ip address is required")
	}

	cutoff := before.UTC().Unix()
	seen := map[int64]struct{}{}

	if err := s.collectStaleIDs(ctx, seen, "ip_address = ?", ipAddress, cutoff); err != nil {
		return 0, err
	}
	if deviceHash != "" {
		if err := s.collectStaleIDs(ctx, seen, "device_hash = ?", deviceHash, cutoff); err != nil {
			return 0, err
		}
	}
	if sessionToken != "" {
		if err := s.collectStaleIDs(ctx, seen, "session_token = ?", sessionToken, cutoff); err != nil {
			return 0, err
		}
	}

	if len(seen) == 0 {
		return 0, nil
	}

	placeholders := make([]string, 0, len(seen))
	args := make([]any, 0, len(seen))
	for id := range seen {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM abuse_entries WHERE id IN (%s)
	`, strings.Join(placeholders, ", ")), args...)
	if err != nil {
		return 0, fmt.Errorf("cleanup ledger entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup ledger entries: %w", err)
	}
	return deleted, nil
}

// SweepExpired deletes every ledger entry older than the cutoff regardless
// of key. Used by the admin sweep; the per-key Cleanup covers the inline
// sweep on record.
func (s *Store) SweepExpired(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx, `
		DELETE FROM abuse_entries WHERE created_at < ?
	`, before.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("sweep expired ledger entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep expired ledger entries: %w", err)
	}
	return deleted, nil
}

func (s *Store) collectStaleIDs(ctx context.Context, seen map[int64]struct{}, keyClause string, key any, cutoff int64) error {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT id FROM abuse_entries WHERE %s AND created_at < ?
	`, keyClause), key, cutoff)
	if err != nil {
		return fmt.Errorf("collect stale entries: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("collect stale entries: %w", err)
		}
		seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("collect stale entries: %w", err)
	}
	return nil
}

func (s *Store) countWhere(ctx context.Context, clause string, args ...any) (int, error) {
	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM abuse_entries WHERE %s
	`, clause), args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return count, nil
}

func nullable(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
