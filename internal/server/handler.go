package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/unionhall/unionhall/internal/routing"
	orgpersistence "github.com/unionhall/unionhall/modules/org/infrastructure/persistence"
	orgservices "github.com/unionhall/unionhall/modules/org/services"
	"github.com/unionhall/unionhall/pkg/authz"
)

func NewHandler() (http.Handler, error) {
	return NewHandlerWithOptions(HandlerOptions{})
}

type HandlerOptions struct {
	TenancyResolver TenancyResolver
	OrgStore        OrgStore
	OrgWriteService orgservices.OrgWriteService
	Principals      principalStore
	Sessions        sessionStore
}

func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	allowlistPath := os.Getenv("ALLOWLIST_PATH")
	if allowlistPath == "" {
		p, err := findConfigPath("config/routing/allowlist.yaml")
		if err != nil {
			return nil, err
		}
		allowlistPath = p
	}

	a, err := routing.LoadAllowlist(allowlistPath)
	if err != nil {
		return nil, err
	}

	classifier, err := routing.NewClassifier(a, "server")
	if err != nil {
		return nil, err
	}

	orgStore := opts.OrgStore
	orgWriteService := opts.OrgWriteService
	tenancyResolver := opts.TenancyResolver
	principals := opts.Principals
	sessions := opts.Sessions

	var pgPool *pgxpool.Pool
	if orgStore == nil {
		dsn := dbDSNFromEnv()
		pool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			return nil, err
		}
		pgPool = pool
		orgStore = newOrgPGStore(pgPool)
	}

	if orgWriteService == nil {
		switch s := orgStore.(type) {
		case *orgPGStore:
			orgWriteService = orgservices.NewOrgWriteService(orgpersistence.NewOrgPGStore(s.pool))
		case *memoryOrgStore:
			orgWriteService = orgservices.NewOrgWriteService(s)
		}
	}

	if tenancyResolver == nil {
		if os.Getenv("TENANTS_PATH") != "" {
			tenants, err := loadTenants()
			if err != nil {
				return nil, err
			}
			tenancyResolver = newStaticTenancyResolver(tenants)
		} else if pgPool != nil {
			tenancyResolver = newTenancyDBResolver(pgPool)
		} else {
			return nil, errors.New("server: missing tenancy resolver (set HandlerOptions.TenancyResolver or use default PG stores)")
		}
	}

	if principals == nil {
		principals = newPrincipalStore(pgPool)
	}
	if sessions == nil {
		sessions = newSessionStore(pgPool)
	}

	authorizer, err := loadAuthorizer()
	if err != nil {
		return nil, err
	}

	router := routing.NewRouter(classifier)

	router.Handle(routing.RouteClassUI, http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(map[string]string{"service": "unionhall"})
	}))

	router.Handle(routing.RouteClassOps, http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))
	router.Handle(routing.RouteClassOps, http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}))

	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/iam/api/sessions", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleSessionsAPI(w, r, principals, sessions)
	}))
	router.Handle(routing.RouteClassAuthn, http.MethodPost, "/logout", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sid, ok := readSID(r); ok {
			_ = sessions.Revoke(r.Context(), sid)
		}
		clearSIDCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}))

	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/org/api/organizations", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrganizationsAPI(w, r, orgStore, orgWriteService)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/org/api/organizations", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrganizationsAPI(w, r, orgStore, orgWriteService)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodGet, "/org/api/organizations/tree", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrganizationsTreeAPI(w, r, orgStore)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/org/api/organizations/rename", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrganizationsRenameAPI(w, r, orgWriteService)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/org/api/organizations/move", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrganizationsMoveAPI(w, r, orgWriteService)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/org/api/organizations/member-count", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrganizationsMemberCountAPI(w, r, orgWriteService)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/org/api/organizations/disable", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrganizationsDisableAPI(w, r, orgWriteService)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/org/api/organizations/enable", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleOrganizationsEnableAPI(w, r, orgWriteService)
	}))
	router.Handle(routing.RouteClassInternalAPI, http.MethodPost, "/org/api/hierarchy-rules:evaluate", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleHierarchyRulesEvaluateAPI(w, r, orgStore)
	}))

	guarded := withTenantAndSession(classifier, tenancyResolver, principals, sessions, withAuthz(classifier, authorizer, router))
	return guarded, nil
}

func MustNewHandler() http.Handler {
	h, err := NewHandler()
	if err != nil {
		panic(errors.New("server: failed to build handler: " + err.Error()))
	}
	return h
}

func handleSessionsAPI(w http.ResponseWriter, r *http.Request, principals principalStore, sessions sessionStore) {
	tenant, _ := currentTenant(r.Context())

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "invalid_json", "invalid json")
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "invalid_form", "email and password required")
		return
	}

	p, err := principals.AuthenticatePassword(r.Context(), tenant.ID, email, req.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "invalid_credentials", "invalid credentials")
			return
		}
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "identity_error", "identity error")
		return
	}

	roleSlug := strings.TrimSpace(strings.ToLower(p.RoleSlug))
	if roleSlug != authz.RoleTenantAdmin && roleSlug != authz.RoleTenantViewer {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "invalid_identity_role", "invalid identity role")
		return
	}

	expiresAt := time.Now().Add(sidTTLFromEnv())
	sid, err := sessions.Create(r.Context(), tenant.ID, p.ID, expiresAt, r.RemoteAddr, r.UserAgent())
	if err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "session_error", "session error")
		return
	}
	setSIDCookie(w, sid)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNoContent)
}

func withTenantAndSession(classifier *routing.Classifier, tenants TenancyResolver, principals principalStore, sessions sessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		rc := routing.RouteClassUI
		if classifier != nil {
			rc = classifier.Classify(path)
		}

		if path == "/health" || path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		tenantDomain := effectiveHost(r)
		t, ok, err := tenants.ResolveTenant(r.Context(), tenantDomain)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "tenant_resolve_error", "tenant resolve error")
			return
		}
		if !ok {
			routing.WriteError(w, r, rc, http.StatusNotFound, "tenant_not_found", "tenant not found")
			return
		}
		r = r.WithContext(withTenant(r.Context(), t))

		if path == "/" || (path == "/iam/api/sessions" && r.Method == http.MethodPost) {
			next.ServeHTTP(w, r)
			return
		}

		sid, ok := readSID(r)
		if !ok {
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		sess, ok, err := sessions.Lookup(r.Context(), sid)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "session_lookup_error", "session lookup error")
			return
		}
		if !ok || sess.TenantID != t.ID {
			clearSIDCookie(w)
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		p, ok, err := principals.GetByID(r.Context(), t.ID, sess.PrincipalID)
		if err != nil {
			routing.WriteError(w, r, rc, http.StatusInternalServerError, "principal_lookup_error", "principal lookup error")
			return
		}
		if !ok || p.Status != "active" {
			clearSIDCookie(w)
			routing.WriteError(w, r, rc, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}
		r = r.WithContext(withPrincipal(r.Context(), p))

		next.ServeHTTP(w, r)
	})
}
