package server

import (
	"os"
	"testing"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestStaticTenancyResolver(t *testing.T) {
	r := newStaticTenancyResolver(map[string]Tenant{
		" Locals.Example.Test ": {ID: "t-1", Domain: "locals.example.test", Name: "Locals"},
	})

	tenant, ok, err := r.ResolveTenant(t.Context(), "locals.example.test")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if tenant.ID != "t-1" {
		t.Fatalf("tenant=%+v", tenant)
	}

	// Lookup is case-insensitive on both sides.
	if _, ok, _ := r.ResolveTenant(t.Context(), "LOCALS.Example.TEST"); !ok {
		t.Fatal("case-insensitive lookup failed")
	}

	if _, ok, _ := r.ResolveTenant(t.Context(), "other.example.test"); ok {
		t.Fatal("unknown host resolved")
	}
	if _, ok, _ := r.ResolveTenant(t.Context(), ""); ok {
		t.Fatal("empty host resolved")
	}
}

func TestHostWithoutPort(t *testing.T) {
	if got := hostWithoutPort("example.test:8080"); got != "example.test" {
		t.Fatalf("got %q", got)
	}
	if got := hostWithoutPort("example.test"); got != "example.test" {
		t.Fatalf("got %q", got)
	}
}

func TestLoadTenantsFromPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/tenants.yaml"
	writeFile(t, path, `
version: 1
tenants:
  - id: 00000000-0000-0000-0000-000000000001
    domain: localhost
    name: Dev
`)
	t.Setenv("TENANTS_PATH", path)

	tenants, err := loadTenants()
	if err != nil {
		t.Fatal(err)
	}
	if len(tenants) != 1 || tenants["localhost"].Name != "Dev" {
		t.Fatalf("tenants=%+v", tenants)
	}
}

func TestLoadTenantsRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad version": "version: 2\ntenants:\n  - id: x\n    domain: y\n",
		"empty":       "version: 1\ntenants: []\n",
		"no domain":   "version: 1\ntenants:\n  - id: x\n",
	}
	i := 0
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := dir + "/t" + string(rune('a'+i)) + ".yaml"
			i++
			writeFile(t, path, content)
			t.Setenv("TENANTS_PATH", path)
			if _, err := loadTenants(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
