package server

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type tenantConfig struct {
	ID     string `yaml:"id"`
	Domain string `yaml:"domain"`
	Name   string `yaml:"name"`
}

type tenantsFile struct {
	Version int            `yaml:"version"`
	Tenants []tenantConfig `yaml:"tenants"`
}

// loadTenants reads the static hostname-to-tenant map from TENANTS_PATH, or
// from config/tenants.yaml found by upward search.
func loadTenants() (map[string]Tenant, error) {
	path := os.Getenv("TENANTS_PATH")
	if path == "" {
		p, err := findConfigPath("config/tenants.yaml")
		if err != nil {
			return nil, err
		}
		path = p
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseTenantsYAML(b)
}

func parseTenantsYAML(b []byte) (map[string]Tenant, error) {
	var tf tenantsFile
	if err := yaml.Unmarshal(b, &tf); err != nil {
		return nil, fmt.Errorf("tenants: %w", err)
	}
	if tf.Version != 1 {
		return nil, fmt.Errorf("tenants: unsupported version %d", tf.Version)
	}
	if len(tf.Tenants) == 0 {
		return nil, fmt.Errorf("tenants: empty")
	}

	m := make(map[string]Tenant, len(tf.Tenants))
	for _, t := range tf.Tenants {
		if t.Domain == "" || t.ID == "" {
			return nil, fmt.Errorf("tenants: entry %q missing id or domain", t.Name)
		}
		m[t.Domain] = Tenant{ID: t.ID, Domain: t.Domain, Name: t.Name}
	}
	return m, nil
}

func hostWithoutPort(host string) string {
	if h, _, ok := strings.Cut(host, ":"); ok {
		return h
	}
	return host
}
