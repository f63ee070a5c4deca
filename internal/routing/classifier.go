package routing

import "errors"

type RouteClass string

const (
	RouteClassUI          RouteClass = "ui"
	RouteClassInternalAPI RouteClass = "internal_api"
	RouteClassPublicAPI   RouteClass = "public_api"
	RouteClassAuthn       RouteClass = "authn"
	RouteClassOps         RouteClass = "ops"
	RouteClassDevOnly     RouteClass = "dev_only"
	RouteClassStatic      RouteClass = "static"
)

// Classifier resolves a request path to its route class. Allowlisted paths
// win; anything else follows the structural conventions in fallbackClass.
type Classifier struct {
	entrypoint string
	exact      map[string]RouteClass
	patterns   []patternRoute
}

type patternRoute struct {
	pattern PathPattern
	rc      RouteClass
}

func NewClassifier(a Allowlist, entrypoint string) (*Classifier, error) {
	ep, ok := a.Entrypoints[entrypoint]
	if !ok {
		return nil, errors.New("allowlist: missing entrypoint")
	}
	if len(ep.Routes) == 0 {
		return nil, errors.New("allowlist: entrypoint routes empty")
	}

	c := &Classifier{
		entrypoint: entrypoint,
		exact:      make(map[string]RouteClass, len(ep.Routes)),
	}
	for _, r := range ep.Routes {
		if r.Path == "" || r.RouteClass == "" {
			return nil, errors.New("allowlist: invalid route")
		}
		if p, ok := parsePathPattern(r.Path); ok {
			c.patterns = append(c.patterns, patternRoute{pattern: p, rc: RouteClass(r.RouteClass)})
		} else {
			c.exact[r.Path] = RouteClass(r.RouteClass)
		}
	}
	return c, nil
}

func (c *Classifier) Classify(path string) RouteClass {
	if rc, ok := c.exact[path]; ok {
		return rc
	}
	for _, p := range c.patterns {
		if p.pattern.Match(path) {
			return p.rc
		}
	}
	return fallbackClass(path)
}

// fallbackClass applies structural conventions for paths the allowlist does
// not name: /api/v1/** is public, /{module}/api/** is internal, /_dev/** is
// dev-only, /assets and /static serve files, everything else renders UI.
func fallbackClass(path string) RouteClass {
	segs := pathSegments(path)
	switch {
	case len(segs) >= 2 && segs[0] == "api" && segs[1] == "v1":
		return RouteClassPublicAPI
	case len(segs) >= 2 && segs[0] != "" && segs[1] == "api":
		return RouteClassInternalAPI
	case len(segs) >= 1 && segs[0] == "_dev":
		return RouteClassDevOnly
	case len(segs) >= 1 && (segs[0] == "assets" || segs[0] == "static"):
		return RouteClassStatic
	default:
		return RouteClassUI
	}
}
