package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/unionhall/unionhall/internal/routing"
	"github.com/unionhall/unionhall/modules/org/domain/ports"
	"github.com/unionhall/unionhall/modules/org/domain/types"
	orgservices "github.com/unionhall/unionhall/modules/org/services"
	"github.com/unionhall/unionhall/pkg/httperr"
)

type organizationAPIItem struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Type        string `json:"type"`
	ParentID    string `json:"parent_id,omitempty"`
	MemberCount int    `json:"member_count"`
	Status      string `json:"status"`
}

func handleOrganizationsAPI(w http.ResponseWriter, r *http.Request, store OrgStore, writeSvc orgservices.OrgWriteService) {
	switch r.Method {
	case http.MethodGet:
		handleOrganizationsListAPI(w, r, store)
	case http.MethodPost:
		handleOrganizationsCreateAPI(w, r, writeSvc)
	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func handleOrganizationsListAPI(w http.ResponseWriter, r *http.Request, store OrgStore) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}
	if store == nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "org_store_missing", "org store missing")
		return
	}

	orgs, err := store.ListOrganizations(r.Context(), tenant.ID)
	if err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "org_list_failed", stablePgMessage(err))
		return
	}

	items := make([]organizationAPIItem, 0, len(orgs))
	for _, org := range orgs {
		items = append(items, organizationAPIItem{
			Code:        org.Code,
			Name:        org.Name,
			ShortName:   org.ShortName,
			Slug:        org.Slug,
			Type:        string(org.Type),
			ParentID:    org.ParentID,
			MemberCount: org.MemberCount,
			Status:      org.Status,
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

type organizationCreateAPIRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	ShortName  string `json:"short_name"`
	Slug       string `json:"slug"`
	Type       string `json:"type"`
	ParentCode string `json:"parent_code"`
	RequestID  string `json:"request_id"`
}

func handleOrganizationsCreateAPI(w http.ResponseWriter, r *http.Request, writeSvc orgservices.OrgWriteService) {
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}
	if writeSvc == nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "org_service_missing", "org service missing")
		return
	}

	var req organizationCreateAPIRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
		return
	}

	result, err := writeSvc.Create(r.Context(), tenant.ID, orgRequestID(req.RequestID), orgInitiatorID(r), orgservices.CreateOrganizationInput{
		Code:       strings.TrimSpace(req.Code),
		Name:       req.Name,
		ShortName:  req.ShortName,
		Slug:       req.Slug,
		Type:       types.OrgType(strings.TrimSpace(req.Type)),
		ParentCode: strings.TrimSpace(req.ParentCode),
	})
	if err != nil {
		writeOrgServiceError(w, r, err, "org_create_failed")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"code":   result.Code,
		"org_id": result.OrgID,
	})
}

type organizationActionAPIRequest struct {
	OrgCode       string `json:"org_code"`
	NewName       string `json:"new_name"`
	NewParentCode string `json:"new_parent_code"`
	MemberCount   *int   `json:"member_count"`
	RequestID     string `json:"request_id"`
}

func decodeOrganizationAction(w http.ResponseWriter, r *http.Request) (organizationActionAPIRequest, Tenant, bool) {
	var req organizationActionAPIRequest

	if r.Method != http.MethodPost {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return req, Tenant{}, false
	}
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return req, Tenant{}, false
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
		return req, Tenant{}, false
	}
	req.OrgCode = strings.TrimSpace(req.OrgCode)
	return req, tenant, true
}

func handleOrganizationsRenameAPI(w http.ResponseWriter, r *http.Request, writeSvc orgservices.OrgWriteService) {
	req, tenant, ok := decodeOrganizationAction(w, r)
	if !ok {
		return
	}
	err := writeSvc.Rename(r.Context(), tenant.ID, orgRequestID(req.RequestID), orgInitiatorID(r), req.OrgCode, req.NewName)
	writeOrgActionResult(w, r, err, "org_rename_failed")
}

func handleOrganizationsMoveAPI(w http.ResponseWriter, r *http.Request, writeSvc orgservices.OrgWriteService) {
	req, tenant, ok := decodeOrganizationAction(w, r)
	if !ok {
		return
	}
	err := writeSvc.Move(r.Context(), tenant.ID, orgRequestID(req.RequestID), orgInitiatorID(r), req.OrgCode, strings.TrimSpace(req.NewParentCode))
	writeOrgActionResult(w, r, err, "org_move_failed")
}

func handleOrganizationsMemberCountAPI(w http.ResponseWriter, r *http.Request, writeSvc orgservices.OrgWriteService) {
	req, tenant, ok := decodeOrganizationAction(w, r)
	if !ok {
		return
	}
	if req.MemberCount == nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_request", "member_count required")
		return
	}
	err := writeSvc.SetMemberCount(r.Context(), tenant.ID, orgRequestID(req.RequestID), orgInitiatorID(r), req.OrgCode, *req.MemberCount)
	writeOrgActionResult(w, r, err, "org_member_count_failed")
}

func handleOrganizationsDisableAPI(w http.ResponseWriter, r *http.Request, writeSvc orgservices.OrgWriteService) {
	req, tenant, ok := decodeOrganizationAction(w, r)
	if !ok {
		return
	}
	err := writeSvc.Disable(r.Context(), tenant.ID, orgRequestID(req.RequestID), orgInitiatorID(r), req.OrgCode)
	writeOrgActionResult(w, r, err, "org_disable_failed")
}

func handleOrganizationsEnableAPI(w http.ResponseWriter, r *http.Request, writeSvc orgservices.OrgWriteService) {
	req, tenant, ok := decodeOrganizationAction(w, r)
	if !ok {
		return
	}
	err := writeSvc.Enable(r.Context(), tenant.ID, orgRequestID(req.RequestID), orgInitiatorID(r), req.OrgCode)
	writeOrgActionResult(w, r, err, "org_enable_failed")
}

func writeOrgActionResult(w http.ResponseWriter, r *http.Request, err error, failCode string) {
	if err != nil {
		writeOrgServiceError(w, r, err, failCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNoContent)
}

func writeOrgServiceError(w http.ResponseWriter, r *http.Request, err error, failCode string) {
	switch {
	case httperr.IsBadRequest(err):
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, failCode, err.Error())
	case httperr.IsConflict(err):
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusConflict, failCode, err.Error())
	case errors.Is(err, ports.ErrOrgNotFound):
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusNotFound, "org_not_found", "organization not found")
	case errors.Is(err, ports.ErrParentNotFound):
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusUnprocessableEntity, "org_parent_not_found", "parent organization not found")
	case errors.Is(err, ports.ErrCodeTaken), isPgUniqueViolation(err):
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusConflict, "org_code_taken", "organization code already in use")
	case isPgInvalidInput(err):
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, failCode, stablePgMessage(err))
	default:
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, failCode, stablePgMessage(err))
	}
}

func orgRequestID(requestID string) string {
	requestID = strings.TrimSpace(requestID)
	if requestID != "" {
		return requestID
	}
	return uuid.NewString()
}

func orgInitiatorID(r *http.Request) string {
	if p, ok := currentPrincipal(r.Context()); ok {
		return p.ID
	}
	return ""
}
