package server

import (
	"net/http"
	"os"

	"github.com/unionhall/unionhall/internal/routing"
	"github.com/unionhall/unionhall/pkg/authz"
)

func loadAuthorizer() (*authz.Authorizer, error) {
	modelPath := os.Getenv("AUTHZ_MODEL_PATH")
	if modelPath == "" {
		p, err := findConfigPath("config/access/model.conf")
		if err != nil {
			return nil, err
		}
		modelPath = p
	}

	policyPath := os.Getenv("AUTHZ_POLICY_PATH")
	if policyPath == "" {
		p, err := findConfigPath("config/access/policy.csv")
		if err != nil {
			return nil, err
		}
		policyPath = p
	}

	mode, err := authz.ModeFromEnv()
	if err != nil {
		return nil, err
	}

	return authz.NewAuthorizer(modelPath, policyPath, mode)
}

type authorizer interface {
	Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error)
}

// withAuthz enforces the role policy for routes that declare a requirement.
// Health endpoints and the UI root carry no tenant-scoped data and skip
// authz; routes without a registered requirement pass through so the router
// can 404 them.
func withAuthz(classifier *routing.Classifier, a authorizer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/" || path == "/health" || path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		object, action, required := authzRequirementForRoute(r.Method, path)
		if !required {
			next.ServeHTTP(w, r)
			return
		}

		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(path)
		}

		tenant, ok := currentTenant(r.Context())
		if !ok {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "tenant_missing", "tenant missing")
			return
		}

		roleSlug := authz.RoleAnonymous
		if p, ok := currentPrincipal(r.Context()); ok {
			roleSlug = p.RoleSlug
		}

		allowed, enforced, err := a.Authorize(
			authz.SubjectFromRoleSlug(roleSlug),
			authz.DomainFromTenantID(tenant.ID),
			object, action,
		)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "authz_error", "authz error")
			return
		}
		if enforced && !allowed {
			routing.WriteError(w, r, rc, http.StatusForbidden, "forbidden", "forbidden")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func authzRequirementForRoute(method string, path string) (object string, action string, ok bool) {
	switch method + " " + path {
	case "POST /iam/api/sessions", "POST /logout":
		return authz.ObjectIAMSession, authz.ActionAdmin, true
	case "GET /org/api/organizations":
		return authz.ObjectOrgOrganizations, authz.ActionRead, true
	case "POST /org/api/organizations",
		"POST /org/api/organizations/rename",
		"POST /org/api/organizations/move",
		"POST /org/api/organizations/member-count",
		"POST /org/api/organizations/disable",
		"POST /org/api/organizations/enable":
		return authz.ObjectOrgOrganizations, authz.ActionAdmin, true
	case "GET /org/api/organizations/tree":
		return authz.ObjectOrgHierarchy, authz.ActionRead, true
	case "POST /org/api/hierarchy-rules:evaluate":
		return authz.ObjectOrgHierarchyRules, authz.ActionRead, true
	default:
		return "", "", false
	}
}
