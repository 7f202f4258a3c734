// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "strings"

// # Owner Roles

// UserRole represents the authorization level granted to an owner account.
type UserRole string

const (
	RoleSuperAdmin            UserRole = "SUPER_ADMIN"
	RoleContentAdmin          UserRole = "CONTENT_ADMIN"
	RoleContentCreator        UserRole = "CONTENT_CREATOR"
	RoleContentModerator      UserRole = "CONTENT_MODERATOR"
	RoleContentApprover       UserRole = "CONTENT_APPROVER"
	RoleTestAdmin             UserRole = "TEST_ADMIN"
	RoleApplicantVerifier     UserRole = "APPLICANT_VERIFIER"
	RoleCertificateAuthorizer UserRole = "CERTIFICATE_AUTHORIZER"
)

// AllRoles lists every assignable role in declaration order.
var AllRoles = []UserRole{
	RoleSuperAdmin,
	RoleContentAdmin,
	RoleContentCreator,
	RoleContentModerator,
	RoleContentApprover,
	RoleTestAdmin,
	RoleApplicantVerifier,
	RoleCertificateAuthorizer,
}

// ParseRole normalises s and reports whether it names a known role.
func ParseRole(s string) (UserRole, bool) {
	role := UserRole(strings.ToUpper(strings.TrimSpace(s)))
	return role, role.Valid()
}

// Valid reports whether r is a member of the role enumeration.
func (r UserRole) Valid() bool {
	return r.level() > 0
}

// String implements fmt.Stringer.
func (r UserRole) String() string { return string(r) }

// # Role Hierarchy

// IsSuperAdmin reports whether r is the top-level owner role.
func (r UserRole) IsSuperAdmin() bool { return r == RoleSuperAdmin }

// IsAdminTier reports whether r belongs to the administrative tier (any *_ADMIN
// role other than SUPER_ADMIN).
func (r UserRole) IsAdminTier() bool {
	return r.level() == levelAdmin
}

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// CanApproveResetFor reports whether an approver holding r may approve or reject a
// reset request filed by requester.
//
// Admin-tier requesters need a SUPER_ADMIN approver. Every other requester needs an
// admin-tier or SUPER_ADMIN approver. SUPER_ADMIN requests are never approvable.
func (r UserRole) CanApproveResetFor(requester UserRole) bool {
	switch {
	case requester.IsSuperAdmin() || !requester.Valid():
		return false
	case requester.IsAdminTier():
		return r.IsSuperAdmin()
	default:
		return r.IsSuperAdmin() || r.IsAdminTier()
	}
}

const (
	levelSuperAdmin = 40
	levelAdmin      = 30
	levelOperator   = 10
)

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleSuperAdmin:
		return levelSuperAdmin
	case RoleContentAdmin, RoleTestAdmin:
		return levelAdmin
	case RoleContentCreator, RoleContentModerator, RoleContentApprover,
		RoleApplicantVerifier, RoleCertificateAuthorizer:
		return levelOperator
	default:
		return 0
	}
}
