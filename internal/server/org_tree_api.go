package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/unionhall/unionhall/internal/routing"
	"github.com/unionhall/unionhall/modules/org/domain/types"
	"github.com/unionhall/unionhall/pkg/hierarchy"
)

type orgTreeAPINode struct {
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	ShortName   string           `json:"short_name,omitempty"`
	Slug        string           `json:"slug,omitempty"`
	Type        string           `json:"type"`
	MemberCount int              `json:"member_count"`
	Status      string           `json:"status"`
	Expanded    bool             `json:"expanded"`
	Children    []orgTreeAPINode `json:"children,omitempty"`
}

type orgTreeAPIStats struct {
	Total          int `json:"total"`
	Visible        int `json:"visible"`
	MemberCountSum int `json:"member_count_sum"`
}

type orgTreeAPIResponse struct {
	Search      string           `json:"search,omitempty"`
	Type        string           `json:"type,omitempty"`
	ExpandLevel int              `json:"expand_level"`
	Roots       []orgTreeAPINode `json:"roots"`
	Stats       orgTreeAPIStats  `json:"stats"`
}

// handleOrganizationsTreeAPI renders the hierarchy for one tenant. Query
// params: search (substring across name/short name/slug), type (exact
// organization type), expand_level (-1 expands everything, 0 collapses
// everything, k shows k levels). An active search overrides expand_level for
// ancestors of matches.
func handleOrganizationsTreeAPI(w http.ResponseWriter, r *http.Request, store OrgStore) {
	if r.Method != http.MethodGet {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	tenant, ok := currentTenant(r.Context())
	if !ok {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "tenant_missing", "tenant missing")
		return
	}
	if store == nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "org_store_missing", "org store missing")
		return
	}

	search := strings.TrimSpace(r.URL.Query().Get("search"))
	typeFilter := strings.TrimSpace(r.URL.Query().Get("type"))
	if typeFilter != "" && !types.OrgType(typeFilter).Valid() {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_type", "invalid organization type")
		return
	}

	expandLevel := -1
	if raw := strings.TrimSpace(r.URL.Query().Get("expand_level")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_expand_level", "invalid expand_level")
			return
		}
		expandLevel = n
	}

	orgs, err := store.ListOrganizations(r.Context(), tenant.ID)
	if err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "org_list_failed", stablePgMessage(err))
		return
	}

	byID := make(map[string]types.Organization, len(orgs))
	records := make([]hierarchy.Record, 0, len(orgs))
	for _, org := range orgs {
		byID[org.ID] = org
		records = append(records, hierarchy.Record{
			ID:          org.ID,
			Name:        org.Name,
			ShortName:   org.ShortName,
			Slug:        org.Slug,
			ParentID:    org.ParentID,
			Type:        string(org.Type),
			MemberCount: org.MemberCount,
		})
	}

	forest := hierarchy.Build(records)
	forest.SetExpandLevel(expandLevel)
	forest.SetTypeFilter(typeFilter)
	forest.SetSearchTerm(search)

	resp := orgTreeAPIResponse{
		Search:      forest.SearchTerm(),
		Type:        forest.TypeFilter(),
		ExpandLevel: expandLevel,
		Roots:       renderTreeNodes(forest.Roots(), byID),
		Stats: orgTreeAPIStats{
			Total:          forest.CountAll(),
			Visible:        forest.CountVisible(),
			MemberCountSum: forest.SumMemberCount(),
		},
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(resp)
}

func renderTreeNodes(nodes []*hierarchy.Node, byID map[string]types.Organization) []orgTreeAPINode {
	out := make([]orgTreeAPINode, 0, len(nodes))
	for _, n := range nodes {
		if !n.Matches {
			continue
		}
		org := byID[n.Record.ID]
		out = append(out, orgTreeAPINode{
			Code:        org.Code,
			Name:        n.Record.Name,
			ShortName:   n.Record.ShortName,
			Slug:        n.Record.Slug,
			Type:        n.Record.Type,
			MemberCount: n.Record.MemberCount,
			Status:      org.Status,
			Expanded:    n.Expanded,
			Children:    renderTreeNodes(n.Children, byID),
		})
	}
	return out
}
