package types

import (
	"encoding/json"
	"time"
)

// OrgType is the level of an organization within the union structure.
type OrgType string

const (
	OrgTypeCongress   OrgType = "congress"
	OrgTypeFederation OrgType = "federation"
	OrgTypeUnion      OrgType = "union"
	OrgTypeLocal      OrgType = "local"
	OrgTypeRegion     OrgType = "region"
	OrgTypeDistrict   OrgType = "district"
)

func (t OrgType) Valid() bool {
	switch t {
	case OrgTypeCongress, OrgTypeFederation, OrgTypeUnion, OrgTypeLocal, OrgTypeRegion, OrgTypeDistrict:
		return true
	}
	return false
}

type OrgEventType string

const (
	OrgEventCreate         OrgEventType = "CREATE"
	OrgEventRename         OrgEventType = "RENAME"
	OrgEventMove           OrgEventType = "MOVE"
	OrgEventSetMemberCount OrgEventType = "SET_MEMBER_COUNT"
	OrgEventDisable        OrgEventType = "DISABLE"
	OrgEventEnable         OrgEventType = "ENABLE"
)

// Organization is the stored record for one tenant organization. ParentID is
// empty for roots.
type Organization struct {
	ID          string
	Code        string
	Name        string
	ShortName   string
	Slug        string
	Type        OrgType
	ParentID    string
	MemberCount int
	Status      string
	CreatedAt   time.Time
}

const (
	OrgStatusActive   = "active"
	OrgStatusDisabled = "disabled"
)

type OrgEvent struct {
	ID              int64
	EventUUID       string
	OrgID           string
	EventType       OrgEventType
	Payload         json.RawMessage
	TransactionTime time.Time
}
