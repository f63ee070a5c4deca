package server

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tenant is one union body served by this instance; every request is scoped
// to exactly one of them via its hostname.
type Tenant struct {
	ID     string
	Domain string
	Name   string
}

type TenancyResolver interface {
	ResolveTenant(ctx context.Context, hostname string) (Tenant, bool, error)
}

// staticTenancyResolver serves a fixed hostname map, used for dev setups and
// tests (see config/tenants.yaml).
type staticTenancyResolver struct {
	byHostname map[string]Tenant
}

func newStaticTenancyResolver(tenants map[string]Tenant) TenancyResolver {
	byHostname := make(map[string]Tenant, len(tenants))
	for host, tenant := range tenants {
		byHostname[strings.ToLower(strings.TrimSpace(host))] = tenant
	}
	return &staticTenancyResolver{byHostname: byHostname}
}

func (r *staticTenancyResolver) ResolveTenant(_ context.Context, hostname string) (Tenant, bool, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return Tenant{}, false, nil
	}
	t, ok := r.byHostname[hostname]
	return t, ok, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type tenancyDBResolver struct {
	q queryRower
}

func newTenancyDBResolver(pool *pgxpool.Pool) TenancyResolver {
	return &tenancyDBResolver{q: pool}
}

func (r *tenancyDBResolver) ResolveTenant(ctx context.Context, hostname string) (Tenant, bool, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return Tenant{}, false, nil
	}

	t := Tenant{Domain: hostname}
	err := r.q.QueryRow(ctx, `
SELECT t.id::text, t.name
FROM iam.tenant_domains d
JOIN iam.tenants t ON t.id = d.tenant_id
WHERE d.hostname = $1
  AND t.is_active = true
LIMIT 1
`, hostname).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, false, nil
		}
		return Tenant{}, false, err
	}
	return t, true, nil
}
