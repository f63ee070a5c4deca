package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/unionhall/unionhall/modules/org/domain/ports"
	"github.com/unionhall/unionhall/modules/org/domain/types"
	"github.com/unionhall/unionhall/pkg/httperr"
	"github.com/unionhall/unionhall/pkg/orgcode"
)

type fakeWriteStore struct {
	ids        map[string]string // code -> org id
	ancestry   map[string][]string
	submitErr  error
	submitted  []submittedEvent
	resolveErr error
}

type submittedEvent struct {
	orgID     string
	eventType string
	payload   map[string]any
}

func (f *fakeWriteStore) SubmitEvent(_ context.Context, _ string, _ string, orgID string, eventType string, payload json.RawMessage, _ string, _ string) (int64, error) {
	if f.submitErr != nil {
		return 0, f.submitErr
	}
	var p map[string]any
	_ = json.Unmarshal(payload, &p)
	f.submitted = append(f.submitted, submittedEvent{orgID: orgID, eventType: eventType, payload: p})
	return int64(len(f.submitted)), nil
}

func (f *fakeWriteStore) ResolveOrgID(_ context.Context, _ string, code string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	normalized, err := orgcode.Normalize(code)
	if err != nil {
		return "", err
	}
	id, ok := f.ids[normalized]
	if !ok {
		return "", orgcode.ErrCodeNotFound
	}
	return id, nil
}

func (f *fakeWriteStore) ResolveOrgCode(_ context.Context, _ string, orgID string) (string, error) {
	for code, id := range f.ids {
		if id == orgID {
			return code, nil
		}
	}
	return "", orgcode.ErrIDNotFound
}

func (f *fakeWriteStore) FindOrganization(_ context.Context, _ string, orgID string) (types.Organization, error) {
	return types.Organization{ID: orgID}, nil
}

func (f *fakeWriteStore) ListAncestry(_ context.Context, _ string, orgID string) ([]string, error) {
	return f.ancestry[orgID], nil
}

func newFakeWriteStore() *fakeWriteStore {
	return &fakeWriteStore{
		ids: map[string]string{
			"CONGRESS": "id-congress",
			"FED-1":    "id-fed1",
			"LOCAL-12": "id-local12",
		},
		ancestry: map[string][]string{
			"id-fed1":    {"id-congress"},
			"id-local12": {"id-fed1", "id-congress"},
		},
	}
}

func TestCreateValidations(t *testing.T) {
	svc := NewOrgWriteService(newFakeWriteStore())
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateOrganizationInput
	}{
		{"bad code", CreateOrganizationInput{Code: "bad code", Name: "X", Type: types.OrgTypeUnion}},
		{"empty name", CreateOrganizationInput{Code: "OK-1", Name: "  ", Type: types.OrgTypeUnion}},
		{"bad type", CreateOrganizationInput{Code: "OK-1", Name: "X", Type: "guild"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "t1", "r1", "u1", tc.in)
			if !httperr.IsBadRequest(err) {
				t.Fatalf("err=%v", err)
			}
		})
	}
}

func TestCreateUnknownParent(t *testing.T) {
	svc := NewOrgWriteService(newFakeWriteStore())
	_, err := svc.Create(context.Background(), "t1", "r1", "u1", CreateOrganizationInput{
		Code: "NEW-1", Name: "New Local", Type: types.OrgTypeLocal, ParentCode: "GONE",
	})
	if !errors.Is(err, ports.ErrParentNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestCreateSubmitsCreateEvent(t *testing.T) {
	store := newFakeWriteStore()
	store.ids["NEW-1"] = "id-new1"
	svc := NewOrgWriteService(store)

	res, err := svc.Create(context.Background(), "t1", "r1", "u1", CreateOrganizationInput{
		Code: "new-1", Name: "New Local", Type: types.OrgTypeLocal, ParentCode: "FED-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Code != "NEW-1" || res.OrgID != "id-new1" {
		t.Fatalf("res=%+v", res)
	}
	if len(store.submitted) != 1 {
		t.Fatalf("submitted=%d", len(store.submitted))
	}
	ev := store.submitted[0]
	if ev.eventType != "CREATE" {
		t.Fatalf("eventType=%s", ev.eventType)
	}
	if ev.payload["parent_id"] != "id-fed1" || ev.payload["org_type"] != "local" {
		t.Fatalf("payload=%v", ev.payload)
	}
}

func TestRename(t *testing.T) {
	store := newFakeWriteStore()
	svc := NewOrgWriteService(store)

	if err := svc.Rename(context.Background(), "t1", "r1", "u1", "LOCAL-12", "  "); !httperr.IsBadRequest(err) {
		t.Fatalf("err=%v", err)
	}
	if err := svc.Rename(context.Background(), "t1", "r1", "u1", "GONE", "New Name"); !errors.Is(err, ports.ErrOrgNotFound) {
		t.Fatalf("err=%v", err)
	}
	if err := svc.Rename(context.Background(), "t1", "r1", "u1", "LOCAL-12", "New Name"); err != nil {
		t.Fatal(err)
	}
	ev := store.submitted[len(store.submitted)-1]
	if ev.eventType != "RENAME" || ev.orgID != "id-local12" || ev.payload["new_name"] != "New Name" {
		t.Fatalf("event=%+v", ev)
	}
}

func TestMoveRejectsSelfParent(t *testing.T) {
	svc := NewOrgWriteService(newFakeWriteStore())
	err := svc.Move(context.Background(), "t1", "r1", "u1", "FED-1", "FED-1")
	if !httperr.IsConflict(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestMoveRejectsCycle(t *testing.T) {
	// LOCAL-12 descends from FED-1; moving FED-1 under LOCAL-12 would loop.
	svc := NewOrgWriteService(newFakeWriteStore())
	err := svc.Move(context.Background(), "t1", "r1", "u1", "FED-1", "LOCAL-12")
	if !httperr.IsConflict(err) {
		t.Fatalf("err=%v", err)
	}
}

func TestMoveToRoot(t *testing.T) {
	store := newFakeWriteStore()
	svc := NewOrgWriteService(store)
	if err := svc.Move(context.Background(), "t1", "r1", "u1", "LOCAL-12", ""); err != nil {
		t.Fatal(err)
	}
	ev := store.submitted[len(store.submitted)-1]
	if ev.eventType != "MOVE" || ev.payload["new_parent_id"] != "" {
		t.Fatalf("event=%+v", ev)
	}
}

func TestMoveValid(t *testing.T) {
	store := newFakeWriteStore()
	svc := NewOrgWriteService(store)
	if err := svc.Move(context.Background(), "t1", "r1", "u1", "LOCAL-12", "CONGRESS"); err != nil {
		t.Fatal(err)
	}
	ev := store.submitted[len(store.submitted)-1]
	if ev.payload["new_parent_id"] != "id-congress" {
		t.Fatalf("event=%+v", ev)
	}
}

func TestSetMemberCount(t *testing.T) {
	store := newFakeWriteStore()
	svc := NewOrgWriteService(store)

	if err := svc.SetMemberCount(context.Background(), "t1", "r1", "u1", "LOCAL-12", -1); !httperr.IsBadRequest(err) {
		t.Fatalf("err=%v", err)
	}
	if err := svc.SetMemberCount(context.Background(), "t1", "r1", "u1", "LOCAL-12", 450); err != nil {
		t.Fatal(err)
	}
	ev := store.submitted[len(store.submitted)-1]
	if ev.eventType != "SET_MEMBER_COUNT" || ev.payload["member_count"] != float64(450) {
		t.Fatalf("event=%+v", ev)
	}
}

func TestDisableEnable(t *testing.T) {
	store := newFakeWriteStore()
	svc := NewOrgWriteService(store)

	if err := svc.Disable(context.Background(), "t1", "r1", "u1", "LOCAL-12"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Enable(context.Background(), "t1", "r1", "u1", "LOCAL-12"); err != nil {
		t.Fatal(err)
	}
	if store.submitted[0].eventType != "DISABLE" || store.submitted[1].eventType != "ENABLE" {
		t.Fatalf("events=%+v", store.submitted)
	}
}

func TestSubmitErrorPropagates(t *testing.T) {
	store := newFakeWriteStore()
	store.submitErr = errors.New("db down")
	svc := NewOrgWriteService(store)
	if err := svc.Rename(context.Background(), "t1", "r1", "u1", "LOCAL-12", "X"); err == nil || err.Error() != "db down" {
		t.Fatalf("err=%v", err)
	}
}
