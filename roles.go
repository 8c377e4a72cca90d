package users

// RoleName is the closed set of role identifiers the service knows about.
// Custom roles are allowed, but only these names carry special handling.
type RoleName string

const (
	// RoleUser is the baseline role every account holds.
	RoleUser RoleName = "USER"
	// RoleModerator can review and curate content.
	RoleModerator RoleName = "MODERATOR"
	// RoleAdmin can manage users and non-default roles.
	RoleAdmin RoleName = "ADMIN"
	// RoleSuperAdmin is the protected operator role.
	RoleSuperAdmin RoleName = "SUPER_ADMIN"
)

// IsDefault reports whether the role is one of the seeded built-ins that can
// never be deleted.
func (r RoleName) IsDefault() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsProtected reports whether the role is exempt from the generic
// grant/revoke path. Accounts holding a protected role cannot be deleted or
// stripped of roles.
func (r RoleName) IsProtected() bool {
	return r == RoleSuperAdmin
}

// IsBaseline reports whether the role is the one nobody can lose.
func (r RoleName) IsBaseline() bool {
	return r == RoleUser
}

// DefaultRoles returns the seeded role set in grant order.
func DefaultRoles() []RoleName {
	return []RoleName{RoleUser, RoleModerator, RoleAdmin, RoleSuperAdmin}
}

var defaultRoleDescriptions = map[RoleName]string{
	RoleUser:       "the default role that all users should have",
	RoleModerator:  "the default role that all moderators should have",
	RoleAdmin:      "the default role that all administrators should have",
	RoleSuperAdmin: "the default role that all super administrators should have",
}

// DescribeDefaultRole returns the seed description for a built-in role.
func DescribeDefaultRole(name RoleName) string {
	return defaultRoleDescriptions[name]
}
