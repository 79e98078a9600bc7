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

// GetOrganization returns the organization record, or nil when unknown.
func (s *Store) GetOrganization(ctx context.Context, id string) (*core.Organization, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("organization id is required")
	}

	var (
		org       core.Organization
		tier      string
		createdAt int64
		updatedAt int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT id, name, tier, created_at, updated_at
		FROM organizations
		WHERE id = ?
	`, id)

	if err := row.Scan(&org.ID, &org.Name, &tier, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch organization: %w", err)
	}

	org.Tier = core.Tier(tier)
	org.CreatedAt = time.Unix(createdAt, 0).UTC()
	org.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &org, nil
}

// UpsertOrganization creates or updates an organization record.
func (s *Store) UpsertOrganization(ctx context.Context, org core.Organization) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	id := strings.TrimSpace(org.ID)
	if id == "" {
		return errors.New("organization id is required")
	}

	tier := org.Tier
	if tier != core.TierPaid {
		tier = core.TierFree
	}

	now := time.Now().UTC().Unix()

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO organizations (id, name, tier, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			tier = excluded.tier,
			updated_at = excluded.updated_at
	`, id, org.Name, string(tier), now, now)
	if err != nil {
		return fmt.Errorf("store organization: %w", err)
	}

	return nil
}

// ListOrganizations returns all organizations ordered by id.
func (s *Store) ListOrganizations(ctx context.Context) ([]core.Organization, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, tier, created_at, updated_at
		FROM organizations
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	orgs := []core.Organization{}
	for rows.Next() {
		var (
			org       core.Organization
			tier      string
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&org.ID, &org.Name, &tier, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		org.Tier = core.Tier(tier)
		org.CreatedAt = time.Unix(createdAt, 0).UTC()
		org.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}

	return orgs, nil
}
