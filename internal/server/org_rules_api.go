package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/unionhall/unionhall/internal/routing"
	"github.com/unionhall/unionhall/modules/org/domain/types"
	"github.com/unionhall/unionhall/pkg/hierarchy"
)

type hierarchyRuleEvaluateRequest struct {
	OrgCode    string `json:"org_code"`
	Expression string `json:"expression"`
	RequestID  string `json:"request_id"`
}

type hierarchyRuleEvaluateResponse struct {
	TraceID    string            `json:"trace_id"`
	RequestID  string            `json:"request_id"`
	OrgCode    string            `json:"org_code"`
	Expression string            `json:"expression"`
	Result     bool              `json:"result"`
	Context    map[string]string `json:"context"`
}

var newHierarchyRulesCELEnv = func() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable("org", cel.MapType(cel.StringType, cel.StringType)))
}

var hierarchyRuleProgramCache sync.Map

// handleHierarchyRulesEvaluateAPI evaluates one CEL boolean expression
// against a single organization's attributes, including tree-derived ones
// (depth, child_count, subtree_member_count). Compiled programs are cached
// per expression text.
func handleHierarchyRulesEvaluateAPI(w http.ResponseWriter, r *http.Request, store OrgStore) {
	if r.Method != http.MethodPost {
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

	var req hierarchyRuleEvaluateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "bad_json", "bad json")
		return
	}
	req.OrgCode = strings.TrimSpace(req.OrgCode)
	req.Expression = strings.TrimSpace(req.Expression)
	req.RequestID = strings.TrimSpace(req.RequestID)
	if req.OrgCode == "" || req.Expression == "" {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_request", "org_code and expression required")
		return
	}

	orgs, err := store.ListOrganizations(r.Context(), tenant.ID)
	if err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusInternalServerError, "org_list_failed", stablePgMessage(err))
		return
	}

	ctxMap, found := buildHierarchyRuleContext(r.Context(), tenant.ID, req.OrgCode, orgs)
	if !found {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusNotFound, "org_not_found", "organization not found")
		return
	}

	result, err := evalHierarchyRuleExpr(req.Expression, ctxMap)
	if err != nil {
		routing.WriteError(w, r, routing.RouteClassInternalAPI, http.StatusBadRequest, "invalid_expression", err.Error())
		return
	}

	resp := hierarchyRuleEvaluateResponse{
		TraceID:    routing.TraceIDFromRequest(r),
		RequestID:  req.RequestID,
		OrgCode:    req.OrgCode,
		Expression: req.Expression,
		Result:     result,
		Context:    ctxMap,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(resp)
}

func buildHierarchyRuleContext(ctx context.Context, tenantID string, orgCode string, orgs []types.Organization) (map[string]string, bool) {
	var target types.Organization
	found := false
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
		if org.Code == orgCode {
			target = org
			found = true
		}
	}
	if !found {
		return nil, false
	}

	forest := hierarchy.Build(records)

	depth := 0
	childCount := 0
	subtreeMembers := target.MemberCount
	if n, ok := forest.Node(target.ID); ok {
		childCount = len(n.Children)
		subtreeMembers = subtreeMemberCount(n)
	}
	for cur := target; cur.ParentID != ""; {
		parent, ok := byID[cur.ParentID]
		if !ok || parent.ID == cur.ID || depth >= 64 {
			break
		}
		depth++
		cur = parent
	}

	parentCode := ""
	if parent, ok := byID[target.ParentID]; ok {
		parentCode = parent.Code
	}

	m := map[string]string{
		"tenant_id":            tenantID,
		"code":                 target.Code,
		"name":                 target.Name,
		"short_name":           target.ShortName,
		"slug":                 target.Slug,
		"org_type":             string(target.Type),
		"status":               target.Status,
		"parent_code":          parentCode,
		"member_count":         strconv.Itoa(target.MemberCount),
		"depth":                strconv.Itoa(depth),
		"child_count":          strconv.Itoa(childCount),
		"subtree_member_count": strconv.Itoa(subtreeMembers),
	}
	if p, ok := currentPrincipal(ctx); ok {
		m["actor_role"] = strings.ToLower(strings.TrimSpace(p.RoleSlug))
	}
	return m, true
}

func subtreeMemberCount(n *hierarchy.Node) int {
	sum := n.Record.MemberCount
	for _, c := range n.Children {
		sum += subtreeMemberCount(c)
	}
	return sum
}

func evalHierarchyRuleExpr(expr string, orgMap map[string]string) (bool, error) {
	program, err := loadOrCompileHierarchyRuleProgram(expr)
	if err != nil {
		return false, err
	}
	out, _, err := program.Eval(map[string]any{"org": orgMap})
	if err != nil {
		return false, err
	}
	v, ok := out.Value().(bool)
	if !ok {
		return false, errors.New("expression did not produce a boolean")
	}
	return v, nil
}

func loadOrCompileHierarchyRuleProgram(expr string) (cel.Program, error) {
	if cached, ok := hierarchyRuleProgramCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := newHierarchyRulesCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.New("expression must evaluate to a boolean")
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	hierarchyRuleProgramCache.Store(expr, program)
	return program, nil
}
