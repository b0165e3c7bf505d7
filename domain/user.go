package domain

import "time"

// Principal is the identity asserted by the identity provider after base
// credential verification. The engine never creates or mutates one.
type Principal struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// Role is the closed set of roles a user record may carry.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleMember    Role = "member"
)

// ParseRole maps a stored role value onto the closed enum. Anything outside
// the three known values is a typed failure, never a default branch.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin, RoleLibrarian, RoleMember:
		return Role(value), nil
	default:
		return "", ErrRoleNotFound
	}
}

// Capability names a single permitted action class for a session.
type Capability string

const (
	CapManageUsers       Capability = "manage_users"
	CapManageCatalog     Capability = "manage_catalog"
	CapDecideMembership  Capability = "decide_membership"
	CapRequestMembership Capability = "request_membership"
	CapReserveBooks      Capability = "reserve_books"
)

// Capabilities returns the capability set granted to a role on session grant.
func (r Role) Capabilities() []Capability {
	switch r {
	case RoleAdmin:
		return []Capability{CapManageUsers, CapManageCatalog, CapDecideMembership}
	case RoleLibrarian:
		return []Capability{CapManageCatalog, CapDecideMembership}
	case RoleMember:
		return []Capability{CapRequestMembership, CapReserveBooks}
	default:
		return nil
	}
}

// CanDecideMembership reports whether the role may approve or reject
// membership-plan requests.
func (r Role) CanDecideMembership() bool {
	return r == RoleAdmin || r == RoleLibrarian
}

// UserRecord is the directory-store record for a user. The engine reads it
// and writes only the membership fields and the display name; the role is
// immutable after creation.
type UserRecord struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Role             Role       `json:"role"`
	MembershipPlan   int        `json:"membership_plan"` // months, 0 = none
	MembershipExpiry *time.Time `json:"membership_expiry,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// MembershipStatus is derived on every read and never stored, so it tracks
// wall-clock time without a background job.
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipInactive MembershipStatus = "inactive"
)

// MembershipStatusAt derives the membership status at the given instant.
// Active strictly before expiry, inactive at or after it.
func (u *UserRecord) MembershipStatusAt(now time.Time) MembershipStatus {
	if u == nil || u.MembershipExpiry == nil {
		return MembershipInactive
	}
	if u.MembershipExpiry.After(now) {
		return MembershipActive
	}
	return MembershipInactive
}
