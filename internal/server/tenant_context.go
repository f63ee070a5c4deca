package server

import "context"

type tenantCtxKey struct{}

// withTenant stamps the resolved tenant onto the request context; handlers
// read it back with currentTenant.
func withTenant(ctx context.Context, tenant Tenant) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tenant)
}

func currentTenant(ctx context.Context) (Tenant, bool) {
	v := ctx.Value(tenantCtxKey{})
	if v == nil {
		return Tenant{}, false
	}
	t, ok := v.(Tenant)
	return t, ok
}
