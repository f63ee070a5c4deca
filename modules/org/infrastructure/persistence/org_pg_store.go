package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/unionhall/unionhall/modules/org/domain/ports"
	"github.com/unionhall/unionhall/modules/org/domain/types"
	"github.com/unionhall/unionhall/pkg/orgcode"
)

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrgPGStore executes organization writes against Postgres. Every call runs
// in its own transaction with app.current_tenant set so row-level security
// scopes the statements to one tenant.
type OrgPGStore struct {
	pool pgBeginner
}

func NewOrgPGStore(pool pgBeginner) ports.OrgWriteStore {
	return &OrgPGStore{pool: pool}
}

func (s *OrgPGStore) SubmitEvent(ctx context.Context, tenantID string, eventUUID string, orgID string, eventType string, payload json.RawMessage, requestCode string, initiatorID string) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return 0, err
	}

	var orgIDValue any
	if orgID != "" {
		orgIDValue = orgID
	}

	var eventID int64
	if err := tx.QueryRow(ctx, `
SELECT org.submit_org_event(
  $1::uuid,
  $2::uuid,
  $3::uuid,
  $4::text,
  $5::jsonb,
  $6::text,
  $7::uuid
)
`, eventUUID, tenantID, orgIDValue, eventType, payload, requestCode, initiatorID).Scan(&eventID); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return eventID, nil
}

func (s *OrgPGStore) ResolveOrgID(ctx context.Context, tenantID string, code string) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return "", err
	}

	orgID, err := orgcode.ResolveID(ctx, tx, tenantID, code)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return orgID, nil
}

func (s *OrgPGStore) ResolveOrgCode(ctx context.Context, tenantID string, orgID string) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return "", err
	}

	code, err := orgcode.ResolveCode(ctx, tx, tenantID, orgID)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return code, nil
}

func (s *OrgPGStore) FindOrganization(ctx context.Context, tenantID string, orgID string) (types.Organization, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return types.Organization{}, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return types.Organization{}, err
	}

	var org types.Organization
	var parentID *string
	if err := tx.QueryRow(ctx, `
SELECT id::text, code, name, short_name, slug, org_type, parent_id::text, member_count, status, created_at
FROM org.organizations
WHERE tenant_id = $1::uuid AND id = $2::uuid
`, tenantID, orgID).Scan(&org.ID, &org.Code, &org.Name, &org.ShortName, &org.Slug, &org.Type, &parentID, &org.MemberCount, &org.Status, &org.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Organization{}, ports.ErrOrgNotFound
		}
		return types.Organization{}, err
	}
	if parentID != nil {
		org.ParentID = *parentID
	}

	if err := tx.Commit(ctx); err != nil {
		return types.Organization{}, err
	}
	return org, nil
}

func (s *OrgPGStore) ListAncestry(ctx context.Context, tenantID string, orgID string) ([]string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
WITH RECURSIVE ancestry AS (
  SELECT parent_id, 1 AS depth
  FROM org.organizations
  WHERE tenant_id = $1::uuid AND id = $2::uuid
  UNION ALL
  SELECT o.parent_id, a.depth + 1
  FROM org.organizations o
  JOIN ancestry a ON o.id = a.parent_id
  WHERE o.tenant_id = $1::uuid AND a.depth < 64
)
SELECT parent_id::text
FROM ancestry
WHERE parent_id IS NOT NULL
ORDER BY depth ASC
`, tenantID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var parentID string
		if err := rows.Scan(&parentID); err != nil {
			return nil, err
		}
		out = append(out, parentID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
