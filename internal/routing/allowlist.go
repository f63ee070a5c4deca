package routing

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Allowlist is the YAML manifest of every route an entrypoint may serve.
// Unlisted paths still get classified, but only via the structural fallback
// in Classify.
type Allowlist struct {
	Version     int                   `yaml:"version"`
	Entrypoints map[string]Entrypoint `yaml:"entrypoints"`
}

type Entrypoint struct {
	Routes []Route `yaml:"routes"`
}

type Route struct {
	Path       string   `yaml:"path"`
	Methods    []string `yaml:"methods"`
	RouteClass string   `yaml:"route_class"`
}

func ParseAllowlistYAML(b []byte) (Allowlist, error) {
	var a Allowlist
	if err := yaml.Unmarshal(b, &a); err != nil {
		return Allowlist{}, fmt.Errorf("allowlist: %w", err)
	}
	if a.Version != 1 {
		return Allowlist{}, fmt.Errorf("allowlist: unsupported version %d", a.Version)
	}
	if len(a.Entrypoints) == 0 {
		return Allowlist{}, errors.New("allowlist: missing entrypoints")
	}
	for name, ep := range a.Entrypoints {
		for _, r := range ep.Routes {
			if !strings.HasPrefix(r.Path, "/") {
				return Allowlist{}, fmt.Errorf("allowlist: entrypoint %q: path %q must start with /", name, r.Path)
			}
		}
	}
	return a, nil
}

func LoadAllowlist(path string) (Allowlist, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Allowlist{}, err
	}
	return ParseAllowlistYAML(b)
}
