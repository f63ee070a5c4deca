package routing

import "testing"

func TestParseAllowlistYAML(t *testing.T) {
	b := []byte(`
version: 1
entrypoints:
  server:
    routes:
      - path: /health
        methods: [GET]
        route_class: ops
`)
	a, err := ParseAllowlistYAML(b)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	routes := a.Entrypoints["server"].Routes
	if len(routes) != 1 || routes[0].Path != "/health" || routes[0].RouteClass != "ops" {
		t.Fatalf("routes=%+v", routes)
	}
}

func TestParseAllowlistYAML_BadVersion(t *testing.T) {
	if _, err := ParseAllowlistYAML([]byte("version: 2\nentrypoints: {}\n")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseAllowlistYAML_MissingEntrypoints(t *testing.T) {
	if _, err := ParseAllowlistYAML([]byte("version: 1\n")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseAllowlistYAML_Malformed(t *testing.T) {
	if _, err := ParseAllowlistYAML([]byte(":\n bad")); err == nil {
		t.Fatal("expected error")
	}
}
