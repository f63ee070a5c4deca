package server

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unionhall/unionhall/modules/org/domain/ports"
	"github.com/unionhall/unionhall/modules/org/domain/types"
	"github.com/unionhall/unionhall/pkg/orgcode"
	"github.com/unionhall/unionhall/pkg/uuidv7"
)

// OrgStore is the read side used by the list and tree handlers.
type OrgStore interface {
	ListOrganizations(ctx context.Context, tenantID string) ([]types.Organization, error)
}

type orgPGStore struct {
	pool *pgxpool.Pool
}

func newOrgPGStore(pool *pgxpool.Pool) *orgPGStore {
	return &orgPGStore{pool: pool}
}

func (s *orgPGStore) ListOrganizations(ctx context.Context, tenantID string) ([]types.Organization, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `SELECT set_config('app.current_tenant', $1, true);`, tenantID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
SELECT id::text, code, name, COALESCE(short_name, ''), COALESCE(slug, ''), org_type, COALESCE(parent_id::text, ''), member_count, status, created_at
FROM org.organizations
WHERE tenant_id = $1::uuid
ORDER BY code ASC
`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]types.Organization, 0)
	for rows.Next() {
		var org types.Organization
		if err := rows.Scan(&org.ID, &org.Code, &org.Name, &org.ShortName, &org.Slug, &org.Type, &org.ParentID, &org.MemberCount, &org.Status, &org.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, org)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// memoryOrgStore serves both the read side and the event write side without
// a database. Events are applied immediately; there is no replay.
type memoryOrgStore struct {
	mu       sync.Mutex
	byTenant map[string]map[string]*types.Organization
	eventSeq int64
}

func newMemoryOrgStore() *memoryOrgStore {
	return &memoryOrgStore{byTenant: map[string]map[string]*types.Organization{}}
}

func (s *memoryOrgStore) tenantOrgsLocked(tenantID string) map[string]*types.Organization {
	m, ok := s.byTenant[tenantID]
	if !ok {
		m = map[string]*types.Organization{}
		s.byTenant[tenantID] = m
	}
	return m
}

func (s *memoryOrgStore) ListOrganizations(_ context.Context, tenantID string) ([]types.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.tenantOrgsLocked(tenantID)
	out := make([]types.Organization, 0, len(m))
	for _, org := range m {
		out = append(out, *org)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *memoryOrgStore) SubmitEvent(_ context.Context, tenantID string, _ string, orgID string, eventType string, payload json.RawMessage, _ string, _ string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.tenantOrgsLocked(tenantID)

	var p struct {
		Code        string `json:"code"`
		Name        string `json:"name"`
		ShortName   string `json:"short_name"`
		Slug        string `json:"slug"`
		OrgType     string `json:"org_type"`
		ParentID    string `json:"parent_id"`
		NewName     string `json:"new_name"`
		NewParentID string `json:"new_parent_id"`
		MemberCount int    `json:"member_count"`
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return 0, err
		}
	}

	switch types.OrgEventType(eventType) {
	case types.OrgEventCreate:
		for _, org := range m {
			if org.Code == p.Code {
				return 0, ports.ErrCodeTaken
			}
		}
		if p.ParentID != "" {
			if _, ok := m[p.ParentID]; !ok {
				return 0, ports.ErrParentNotFound
			}
		}
		id, err := uuidv7.NewString()
		if err != nil {
			return 0, err
		}
		m[id] = &types.Organization{
			ID:        id,
			Code:      p.Code,
			Name:      p.Name,
			ShortName: p.ShortName,
			Slug:      p.Slug,
			Type:      types.OrgType(p.OrgType),
			ParentID:  p.ParentID,
			Status:    types.OrgStatusActive,
			CreatedAt: time.Now().UTC(),
		}
	case types.OrgEventRename:
		org, ok := m[orgID]
		if !ok {
			return 0, ports.ErrOrgNotFound
		}
		org.Name = p.NewName
	case types.OrgEventMove:
		org, ok := m[orgID]
		if !ok {
			return 0, ports.ErrOrgNotFound
		}
		if p.NewParentID != "" {
			if _, ok := m[p.NewParentID]; !ok {
				return 0, ports.ErrParentNotFound
			}
		}
		org.ParentID = p.NewParentID
	case types.OrgEventSetMemberCount:
		org, ok := m[orgID]
		if !ok {
			return 0, ports.ErrOrgNotFound
		}
		org.MemberCount = p.MemberCount
	case types.OrgEventDisable:
		org, ok := m[orgID]
		if !ok {
			return 0, ports.ErrOrgNotFound
		}
		org.Status = types.OrgStatusDisabled
	case types.OrgEventEnable:
		org, ok := m[orgID]
		if !ok {
			return 0, ports.ErrOrgNotFound
		}
		org.Status = types.OrgStatusActive
	default:
		return 0, ports.ErrOrgNotFound
	}

	s.eventSeq++
	return s.eventSeq, nil
}

func (s *memoryOrgStore) ResolveOrgID(_ context.Context, tenantID string, code string) (string, error) {
	normalized, err := orgcode.Normalize(code)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, org := range s.tenantOrgsLocked(tenantID) {
		if org.Code == normalized {
			return org.ID, nil
		}
	}
	return "", orgcode.ErrCodeNotFound
}

func (s *memoryOrgStore) ResolveOrgCode(_ context.Context, tenantID string, orgID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.tenantOrgsLocked(tenantID)[orgID]
	if !ok {
		return "", orgcode.ErrIDNotFound
	}
	return org.Code, nil
}

func (s *memoryOrgStore) FindOrganization(_ context.Context, tenantID string, orgID string) (types.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, ok := s.tenantOrgsLocked(tenantID)[orgID]
	if !ok {
		return types.Organization{}, ports.ErrOrgNotFound
	}
	return *org, nil
}

func (s *memoryOrgStore) ListAncestry(_ context.Context, tenantID string, orgID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.tenantOrgsLocked(tenantID)
	out := make([]string, 0)
	seen := map[string]bool{orgID: true}
	cur, ok := m[orgID]
	if !ok {
		return nil, ports.ErrOrgNotFound
	}
	for cur.ParentID != "" && !seen[cur.ParentID] {
		seen[cur.ParentID] = true
		out = append(out, cur.ParentID)
		next, ok := m[cur.ParentID]
		if !ok {
			break
		}
		cur = next
	}
	return out, nil
}
