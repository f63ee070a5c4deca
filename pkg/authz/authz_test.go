package authz

import (
	"os"
	"path/filepath"
	"testing"
)

func TestModeFromEnv_Default(t *testing.T) {
	t.Setenv("AUTHZ_MODE", "")
	m, err := ModeFromEnv()
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if m != ModeEnforce {
		t.Fatalf("mode=%q", m)
	}
}

func TestModeFromEnv_Shadow(t *testing.T) {
	t.Setenv("AUTHZ_MODE", "shadow")
	m, err := ModeFromEnv()
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if m != ModeShadow {
		t.Fatalf("mode=%q", m)
	}
}

func TestModeFromEnv_DisabledRequiresUnsafe(t *testing.T) {
	t.Setenv("AUTHZ_MODE", "disabled")
	t.Setenv("AUTHZ_UNSAFE_ALLOW_DISABLED", "")
	if _, err := ModeFromEnv(); err == nil {
		t.Fatal("expected error")
	}
	t.Setenv("AUTHZ_UNSAFE_ALLOW_DISABLED", "1")
	m, err := ModeFromEnv()
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if m != ModeDisabled {
		t.Fatalf("mode=%q", m)
	}
}

func TestModeFromEnv_Invalid(t *testing.T) {
	t.Setenv("AUTHZ_MODE", "nope")
	if _, err := ModeFromEnv(); err == nil {
		t.Fatal("expected error")
	}
}

func writeTestPolicy(t *testing.T) (modelPath string, policyPath string) {
	t.Helper()
	dir := t.TempDir()
	modelPath = filepath.Join(dir, "model.conf")
	policyPath = filepath.Join(dir, "policy.csv")

	if err := os.WriteFile(modelPath, []byte(`
[request_definition]
r = sub, dom, obj, act

[policy_definition]
p = sub, dom, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.dom == p.dom && r.obj == p.obj && r.act == p.act
`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(policyPath, []byte("p, role:tenant-viewer, t1, org.organizations, read\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return modelPath, policyPath
}

func TestAuthorize_Enforce(t *testing.T) {
	model, policy := writeTestPolicy(t)
	a, err := NewAuthorizer(model, policy, ModeEnforce)
	if err != nil {
		t.Fatalf("err=%v", err)
	}

	allowed, enforced, err := a.Authorize("role:tenant-viewer", "t1", ObjectOrgOrganizations, ActionRead)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !enforced || !allowed {
		t.Fatalf("allowed=%v enforced=%v", allowed, enforced)
	}

	allowed, enforced, err = a.Authorize("role:tenant-viewer", "t1", ObjectOrgOrganizations, ActionAdmin)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !enforced || allowed {
		t.Fatalf("allowed=%v enforced=%v", allowed, enforced)
	}
}

func TestAuthorize_ShadowNeverEnforces(t *testing.T) {
	model, policy := writeTestPolicy(t)
	a, err := NewAuthorizer(model, policy, ModeShadow)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	allowed, enforced, err := a.Authorize("role:tenant-viewer", "t1", ObjectOrgOrganizations, ActionAdmin)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if enforced || allowed {
		t.Fatalf("allowed=%v enforced=%v", allowed, enforced)
	}
}

func TestAuthorize_DisabledAllowsEverything(t *testing.T) {
	model, policy := writeTestPolicy(t)
	a, err := NewAuthorizer(model, policy, ModeDisabled)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	allowed, enforced, err := a.Authorize("role:anonymous", "t2", ObjectOrgHierarchyRules, ActionAdmin)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if enforced || !allowed {
		t.Fatalf("allowed=%v enforced=%v", allowed, enforced)
	}
}

func TestSubjectFromRoleSlug(t *testing.T) {
	if got := SubjectFromRoleSlug(" Tenant-Admin "); got != "role:tenant-admin" {
		t.Fatalf("subject=%q", got)
	}
	if got := SubjectFromRoleSlug(""); got != "role:anonymous" {
		t.Fatalf("subject=%q", got)
	}
}

func TestDomainFromTenantID(t *testing.T) {
	if got := DomainFromTenantID(" T1 "); got != "t1" {
		t.Fatalf("domain=%q", got)
	}
}
