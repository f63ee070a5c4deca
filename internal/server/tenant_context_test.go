package server

import "testing"

func TestTenantContext(t *testing.T) {
	if _, ok := currentTenant(t.Context()); ok {
		t.Fatal("tenant present on empty context")
	}
	ctx := withTenant(t.Context(), Tenant{ID: "t-1", Domain: "localhost"})
	tenant, ok := currentTenant(ctx)
	if !ok || tenant.ID != "t-1" {
		t.Fatalf("tenant=%+v ok=%v", tenant, ok)
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := currentPrincipal(t.Context()); ok {
		t.Fatal("principal present on empty context")
	}
	ctx := withPrincipal(t.Context(), Principal{ID: "p-1", RoleSlug: "tenant-admin"})
	p, ok := currentPrincipal(ctx)
	if !ok || p.ID != "p-1" {
		t.Fatalf("principal=%+v ok=%v", p, ok)
	}
}
