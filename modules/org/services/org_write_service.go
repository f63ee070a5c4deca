package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/unionhall/unionhall/modules/org/domain/ports"
	"github.com/unionhall/unionhall/modules/org/domain/types"
	"github.com/unionhall/unionhall/pkg/httperr"
	"github.com/unionhall/unionhall/pkg/orgcode"
	"github.com/unionhall/unionhall/pkg/uuidv7"
)

// OrgWriteService validates organization commands before they reach the
// store. The hierarchy read path treats dangling parents as recoverable; the
// write path is where structural invariants (parent exists, moves stay
// acyclic) are actually enforced, so cyclic data never enters the dataset.
type OrgWriteService interface {
	Create(ctx context.Context, tenantID string, requestID string, initiatorID string, in CreateOrganizationInput) (CreateOrganizationResult, error)
	Rename(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string, newName string) error
	Move(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string, newParentCode string) error
	SetMemberCount(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string, memberCount int) error
	Disable(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string) error
	Enable(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string) error
}

type CreateOrganizationInput struct {
	Code       string
	Name       string
	ShortName  string
	Slug       string
	Type       types.OrgType
	ParentCode string
}

type CreateOrganizationResult struct {
	OrgID   string
	Code    string
	EventID int64
}

type orgWriteService struct {
	store ports.OrgWriteStore
}

func NewOrgWriteService(store ports.OrgWriteStore) OrgWriteService {
	return &orgWriteService{store: store}
}

func (s *orgWriteService) Create(ctx context.Context, tenantID string, requestID string, initiatorID string, in CreateOrganizationInput) (CreateOrganizationResult, error) {
	code, err := orgcode.Normalize(in.Code)
	if err != nil {
		return CreateOrganizationResult{}, httperr.NewBadRequest("code invalid")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return CreateOrganizationResult{}, httperr.NewBadRequest("name is required")
	}
	if !in.Type.Valid() {
		return CreateOrganizationResult{}, httperr.NewBadRequest("organization type invalid")
	}

	parentID := ""
	if strings.TrimSpace(in.ParentCode) != "" {
		parentID, err = s.store.ResolveOrgID(ctx, tenantID, in.ParentCode)
		if err != nil {
			return CreateOrganizationResult{}, parentResolveError(err)
		}
	}

	payload, err := json.Marshal(map[string]any{
		"code":       code,
		"name":       name,
		"short_name": strings.TrimSpace(in.ShortName),
		"slug":       strings.TrimSpace(in.Slug),
		"org_type":   string(in.Type),
		"parent_id":  parentID,
	})
	if err != nil {
		return CreateOrganizationResult{}, err
	}

	eventUUID, err := uuidv7.NewString()
	if err != nil {
		return CreateOrganizationResult{}, err
	}

	eventID, err := s.store.SubmitEvent(ctx, tenantID, eventUUID, "", string(types.OrgEventCreate), payload, requestID, initiatorID)
	if err != nil {
		return CreateOrganizationResult{}, err
	}

	orgID, err := s.store.ResolveOrgID(ctx, tenantID, code)
	if err != nil {
		return CreateOrganizationResult{}, err
	}
	return CreateOrganizationResult{OrgID: orgID, Code: code, EventID: eventID}, nil
}

func (s *orgWriteService) Rename(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return httperr.NewBadRequest("new_name is required")
	}
	orgID, err := s.store.ResolveOrgID(ctx, tenantID, orgCode)
	if err != nil {
		return resolveError(err)
	}
	payload, err := json.Marshal(map[string]string{"new_name": newName})
	if err != nil {
		return err
	}
	return s.submit(ctx, tenantID, orgID, types.OrgEventRename, payload, requestID, initiatorID)
}

// Move reparents an organization. An empty newParentCode promotes the
// organization to a root. Moves that would place an organization under its
// own descendant are rejected.
func (s *orgWriteService) Move(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string, newParentCode string) error {
	orgID, err := s.store.ResolveOrgID(ctx, tenantID, orgCode)
	if err != nil {
		return resolveError(err)
	}

	newParentID := ""
	if strings.TrimSpace(newParentCode) != "" {
		newParentID, err = s.store.ResolveOrgID(ctx, tenantID, newParentCode)
		if err != nil {
			return parentResolveError(err)
		}
		if newParentID == orgID {
			return httperr.NewConflict("organization cannot be its own parent")
		}
		ancestry, err := s.store.ListAncestry(ctx, tenantID, newParentID)
		if err != nil {
			return err
		}
		for _, ancestorID := range ancestry {
			if ancestorID == orgID {
				return httperr.NewConflict("move would create a cycle")
			}
		}
	}

	payload, err := json.Marshal(map[string]string{"new_parent_id": newParentID})
	if err != nil {
		return err
	}
	return s.submit(ctx, tenantID, orgID, types.OrgEventMove, payload, requestID, initiatorID)
}

func (s *orgWriteService) SetMemberCount(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string, memberCount int) error {
	if memberCount < 0 {
		return httperr.NewBadRequest("member_count must be non-negative")
	}
	orgID, err := s.store.ResolveOrgID(ctx, tenantID, orgCode)
	if err != nil {
		return resolveError(err)
	}
	payload, err := json.Marshal(map[string]int{"member_count": memberCount})
	if err != nil {
		return err
	}
	return s.submit(ctx, tenantID, orgID, types.OrgEventSetMemberCount, payload, requestID, initiatorID)
}

func (s *orgWriteService) Disable(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string) error {
	return s.statusEvent(ctx, tenantID, requestID, initiatorID, orgCode, types.OrgEventDisable)
}

func (s *orgWriteService) Enable(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string) error {
	return s.statusEvent(ctx, tenantID, requestID, initiatorID, orgCode, types.OrgEventEnable)
}

func (s *orgWriteService) statusEvent(ctx context.Context, tenantID string, requestID string, initiatorID string, orgCode string, eventType types.OrgEventType) error {
	orgID, err := s.store.ResolveOrgID(ctx, tenantID, orgCode)
	if err != nil {
		return resolveError(err)
	}
	return s.submit(ctx, tenantID, orgID, eventType, json.RawMessage(`{}`), requestID, initiatorID)
}

func (s *orgWriteService) submit(ctx context.Context, tenantID string, orgID string, eventType types.OrgEventType, payload json.RawMessage, requestID string, initiatorID string) error {
	eventUUID, err := uuidv7.NewString()
	if err != nil {
		return err
	}
	_, err = s.store.SubmitEvent(ctx, tenantID, eventUUID, orgID, string(eventType), payload, requestID, initiatorID)
	return err
}

func resolveError(err error) error {
	switch {
	case errors.Is(err, orgcode.ErrCodeInvalid):
		return httperr.NewBadRequest("code invalid")
	case errors.Is(err, orgcode.ErrCodeNotFound):
		return ports.ErrOrgNotFound
	}
	return err
}

func parentResolveError(err error) error {
	switch {
	case errors.Is(err, orgcode.ErrCodeInvalid):
		return httperr.NewBadRequest("parent code invalid")
	case errors.Is(err, orgcode.ErrCodeNotFound):
		return ports.ErrParentNotFound
	}
	return err
}
