package routing

import (
	"net/http"
	"runtime/debug"
	"sort"
	"strings"
)

// Router dispatches on exact path and method. Unknown paths fall back to the
// classifier so error rendering matches the class the path would have had.
type Router struct {
	classifier *Classifier
	paths      map[string]*pathEntry
}

type pathEntry struct {
	rc       RouteClass
	handlers map[string]http.Handler
}

func NewRouter(classifier *Classifier) *Router {
	return &Router{classifier: classifier, paths: map[string]*pathEntry{}}
}

func (r *Router) Handle(rc RouteClass, method string, path string, h http.Handler) {
	e := r.paths[path]
	if e == nil {
		e = &pathEntry{rc: rc, handlers: map[string]http.Handler{}}
		r.paths[path] = e
	}
	e.handlers[method] = recoverable(rc, h)
}

func recoverable(rc RouteClass, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				_ = debug.Stack()
				WriteError(w, req, rc, http.StatusInternalServerError, "internal_error", "internal error")
			}
		}()
		h.ServeHTTP(w, req)
	})
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	e, ok := r.paths[req.URL.Path]
	if !ok {
		WriteError(w, req, r.classifier.Classify(req.URL.Path), http.StatusNotFound, "not_found", "not found")
		return
	}
	h, ok := e.handlers[req.Method]
	if !ok {
		w.Header().Set("Allow", allowedMethods(e.handlers))
		WriteError(w, req, e.rc, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	h.ServeHTTP(w, req)
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for m := range handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
