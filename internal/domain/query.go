package domain

import (
	"time"

	"github.com/google/uuid"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSortOrder(s string) SortOrder {
	if s == string(SortDesc) {
		return SortDesc
	}

	return SortAsc
}

// ChildSortKey is the allow-list of sortable child report columns.
type ChildSortKey string

const (
	SortByName         ChildSortKey = "name"
	SortByAge          ChildSortKey = "age"
	SortByBalance      ChildSortKey = "balance"
	SortByParentName   ChildSortKey = "parentName"
	SortByCheckinCount ChildSortKey = "checkinCount"
	SortByLastCheckin  ChildSortKey = "lastCheckin"
)

var childSortKeys = []ChildSortKey{
	SortByName, SortByAge, SortByBalance, SortByParentName, SortByCheckinCount, SortByLastCheckin,
}

// ParseChildSortKey falls back to sorting by name for anything outside the
// allow-list.
func ParseChildSortKey(s string) ChildSortKey {
	for _, k := range childSortKeys {
		if string(k) == s {
			return k
		}
	}

	return SortByName
}

type Page struct {
	Limit  int
	Offset int
}

type ChildQuery struct {
	Page
	SortBy ChildSortKey
	Order  SortOrder
	Search string
	// Unpaged returns every match, used by exports.
	Unpaged bool
}

type DateRange struct {
	From time.Time
	To   time.Time
}

type CheckinQuery struct {
	Page
	DateRange
	Unpaged bool
}

type TransactionQuery struct {
	Page
	From    *time.Time
	To      *time.Time
	ChildID *uuid.UUID
	Type    TransactionType
}

type TokenQuery struct {
	Page
	From *time.Time
	To   *time.Time
}

type UserQuery struct {
	Page
	Search string
	Role   Role
}

type QRCodeQuery struct {
	Page
	Printed  *bool
	Assigned *bool
}

type AuditQuery struct {
	Page
	Action AuditAction
}

// Paged is a page of results plus the unpaginated total.
type Paged[T any] struct {
	Total int64 `json:"total"`
	Data  []T   `json:"data"`
}

// ChildOverview is one row of the admin children report.
type ChildOverview struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Gender       Gender     `json:"gender"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	Age          *int       `json:"age,omitempty"`
	ParentID     uuid.UUID  `json:"parentId"`
	ParentName   string     `json:"parentName"`
	ParentEmail  string     `json:"parentEmail"`
	ParentPhone  string     `json:"parentPhone,omitempty"`
	BalanceCents int64      `json:"balanceCents"`
	CheckinCount int        `json:"checkinCount"`
	LastCheckin  *time.Time `json:"lastCheckin,omitempty"`
	QRCode       string     `json:"qrCode,omitempty"`
}

// CheckinOverview is one row of the admin check-in report.
type CheckinOverview struct {
	ID          uuid.UUID `json:"id"`
	ChildID     uuid.UUID `json:"childId"`
	ChildName   string    `json:"childName"`
	ParentName  string    `json:"parentName"`
	StaffID     uuid.UUID `json:"staffId"`
	StaffName   string    `json:"staffName"`
	CheckinTime time.Time `json:"checkinTime"`
	CheckinDate string    `json:"checkinDate"`
}

type Summary struct {
	Children            int64 `json:"children"`
	Parents             int64 `json:"parents"`
	OutstandingCents    int64 `json:"outstandingCents"`
	CheckinsInRange     int64 `json:"checkinsInRange"`
	CreditedCentsRange  int64 `json:"creditedCentsInRange"`
	WithdrawnCentsRange int64 `json:"withdrawnCentsInRange"`
}
