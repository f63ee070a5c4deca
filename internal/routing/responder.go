package routing

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ErrorEnvelope is the JSON error body shared by every API route class.
type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	TraceID string            `json:"trace_id"`
	Meta    ErrorEnvelopeMeta `json:"meta"`
}

type ErrorEnvelopeMeta struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

// WriteError renders an error as JSON for API route classes (and for any
// client that asks for JSON), and as a minimal HTML page otherwise.
func WriteError(w http.ResponseWriter, r *http.Request, rc RouteClass, status int, code string, message string) {
	if rc == RouteClassInternalAPI || rc == RouteClassPublicAPI || acceptsJSON(r) {
		writeJSONError(w, r, status, code, message)
		return
	}
	writeHTMLError(w, status, message)
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Code:    code,
		Message: message,
		TraceID: TraceIDFromRequest(r),
		Meta:    ErrorEnvelopeMeta{Path: r.URL.Path, Method: r.Method},
	})
}

func writeHTMLError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("<!doctype html><html><body>" + message + "</body></html>"))
}

func acceptsJSON(r *http.Request) bool {
	return strings.HasPrefix(strings.TrimSpace(r.Header.Get("Accept")), "application/json")
}

// TraceIDFromRequest extracts the trace id from a W3C traceparent header.
// Malformed headers and the all-zero id yield "".
func TraceIDFromRequest(r *http.Request) string {
	parts := strings.Split(strings.TrimSpace(r.Header.Get("traceparent")), "-")
	if len(parts) != 4 {
		return ""
	}
	id := strings.ToLower(parts[1])
	if len(id) != 32 || id == strings.Repeat("0", 32) {
		return ""
	}
	for _, ch := range id {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return ""
		}
	}
	return id
}
