package routing

import "strings"

// PathPattern matches allowlist paths containing {param} placeholders. A
// placeholder stands for exactly one non-empty segment; every other segment
// must match literally.
type PathPattern struct {
	raw      string
	segments []string
}

func parsePathPattern(raw string) (PathPattern, bool) {
	if raw == "" || raw[0] != '/' || !strings.Contains(raw, "{") {
		return PathPattern{}, false
	}
	segs := pathSegments(raw)
	for _, seg := range segs {
		if seg == "" {
			return PathPattern{}, false
		}
		if strings.ContainsAny(seg, "{}") && !isPlaceholder(seg) {
			return PathPattern{}, false
		}
	}
	return PathPattern{raw: raw, segments: segs}, true
}

func (p PathPattern) Match(path string) bool {
	if len(p.segments) == 0 {
		return false
	}
	got := pathSegments(path)
	if len(got) != len(p.segments) {
		return false
	}
	for i, want := range p.segments {
		if got[i] == "" {
			return false
		}
		if !isPlaceholder(want) && got[i] != want {
			return false
		}
	}
	return true
}

func pathSegments(path string) []string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func isPlaceholder(seg string) bool {
	return len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}'
}
