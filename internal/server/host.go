package server

import (
	"net/http"
	"os"
	"strings"
)

// effectiveHost returns the lowercase hostname the request was addressed to,
// without a port. X-Forwarded-Host is honored only behind a trusted proxy
// (TRUST_PROXY=1); taking it from arbitrary clients would let them pick
// their tenant.
func effectiveHost(r *http.Request) string {
	host := r.Host
	if os.Getenv("TRUST_PROXY") == "1" {
		if fwd := firstForwardedHost(r); fwd != "" {
			host = fwd
		}
	}
	return strings.ToLower(hostWithoutPort(strings.TrimSpace(host)))
}

func firstForwardedHost(r *http.Request) string {
	raw := r.Header.Get("X-Forwarded-Host")
	if first, _, ok := strings.Cut(raw, ","); ok {
		raw = first
	}
	return strings.TrimSpace(raw)
}
