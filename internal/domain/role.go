package domain

import "errors"

type Role string

const (
	RoleParent    Role = "parent"
	RoleVolunteer Role = "volunteer"
	RoleVendor    Role = "vendor"
	RoleAdmin     Role = "admin"
)

var ErrForbidden = errors.New("forbidden")

// StaffRoles may mutate the ledger.
var StaffRoles = []Role{RoleVolunteer, RoleAdmin}

var AllRoles = []Role{RoleParent, RoleVolunteer, RoleVendor, RoleAdmin}

func ParseRole(s string) (Role, bool) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, true
		}
	}

	return "", false
}

func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}

	return false
}

func (r Role) IsStaff() bool {
	return r.In(StaffRoles...)
}

// Authorize is the role gate run before any ledger mutation. It has no side
// effects; a denial is always ErrForbidden.
func Authorize(role Role, allowed ...Role) error {
	if !role.In(allowed...) {
		return ErrForbidden
	}

	return nil
}

// ChildCreation is the capability a caller holds when registering a child.
type ChildCreation uint8

const (
	// CannotCreateChild denies the operation.
	CannotCreateChild ChildCreation = iota
	// CreateOwnChild pins the new child's parent to the caller.
	CreateOwnChild
	// CreateForParent requires an explicit parent id and uses it as given.
	CreateForParent
)

func ChildCreationFor(role Role) ChildCreation {
	switch role {
	case RoleParent:
		return CreateOwnChild
	case RoleVolunteer, RoleAdmin:
		return CreateForParent
	default:
		return CannotCreateChild
	}
}
