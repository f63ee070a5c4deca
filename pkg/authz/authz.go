package authz

import (
	"errors"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

type Mode string

const (
	ModeEnforce  Mode = "enforce"
	ModeShadow   Mode = "shadow"
	ModeDisabled Mode = "disabled"
)

// ModeFromEnv reads AUTHZ_MODE, defaulting to enforce. Disabling entirely is
// a footgun, so it additionally requires AUTHZ_UNSAFE_ALLOW_DISABLED=1.
func ModeFromEnv() (Mode, error) {
	switch m := Mode(strings.TrimSpace(strings.ToLower(os.Getenv("AUTHZ_MODE")))); m {
	case "":
		return ModeEnforce, nil
	case ModeEnforce, ModeShadow:
		return m, nil
	case ModeDisabled:
		if os.Getenv("AUTHZ_UNSAFE_ALLOW_DISABLED") != "1" {
			return "", errors.New("authz: AUTHZ_MODE=disabled requires AUTHZ_UNSAFE_ALLOW_DISABLED=1")
		}
		return ModeDisabled, nil
	default:
		return "", errors.New("authz: invalid AUTHZ_MODE (expected enforce|shadow|disabled)")
	}
}

// Authorizer wraps a casbin RBAC-with-domains enforcer. The domain is the
// tenant, so one policy file covers every tenant.
type Authorizer struct {
	enforcer *casbin.Enforcer
	mode     Mode
}

func NewAuthorizer(modelPath string, policyPath string, mode Mode) (*Authorizer, error) {
	enforcer, err := casbin.NewEnforcer(modelPath, fileadapter.NewAdapter(policyPath))
	if err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

func SubjectFromRoleSlug(roleSlug string) string {
	roleSlug = strings.TrimSpace(strings.ToLower(roleSlug))
	if roleSlug == "" {
		roleSlug = RoleAnonymous
	}
	return "role:" + roleSlug
}

func DomainFromTenantID(tenantID string) string {
	return strings.ToLower(strings.TrimSpace(tenantID))
}

// Authorize evaluates role x tenant-domain x object x action. In shadow mode
// the decision is computed but not enforced; callers only block a request
// when enforced is true.
func (a *Authorizer) Authorize(subject string, domain string, object string, action string) (allowed bool, enforced bool, err error) {
	if a.mode == ModeDisabled {
		return true, false, nil
	}
	enforced = a.mode == ModeEnforce
	allowed, err = a.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return false, enforced, err
	}
	return allowed, enforced, nil
}
