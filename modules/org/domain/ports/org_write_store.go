package ports

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/unionhall/unionhall/modules/org/domain/types"
)

var (
	ErrOrgNotFound    = errors.New("org_not_found")
	ErrParentNotFound = errors.New("org_parent_not_found")
	ErrCodeTaken      = errors.New("org_code_taken")
)

type OrgWriteStore interface {
	SubmitEvent(ctx context.Context, tenantID string, eventUUID string, orgID string, eventType string, payload json.RawMessage, requestCode string, initiatorID string) (int64, error)
	ResolveOrgID(ctx context.Context, tenantID string, code string) (string, error)
	ResolveOrgCode(ctx context.Context, tenantID string, orgID string) (string, error)
	FindOrganization(ctx context.Context, tenantID string, orgID string) (types.Organization, error)
	// ListAncestry returns the parent chain for orgID, nearest parent first,
	// excluding orgID itself. Used by the move cycle guard.
	ListAncestry(ctx context.Context, tenantID string, orgID string) ([]string, error)
}
