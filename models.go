package users

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model
type User struct {
	bun.BaseModel       `bun:"table:users,alias:usr"`
	ID                  uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FirstName           string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName            string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Username            string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email               string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash        string     `bun:"password_hash" json:"-"`
	Enabled             bool       `bun:"enabled,notnull" json:"enabled"`
	PasswordNeedsChange bool       `bun:"password_needs_change,notnull" json:"password_needs_change"`
	LastLoginAt         *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	Roles               []*Role    `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`
	CreatedBy           string     `bun:"created_by" json:"created_by,omitempty"`
	ModifiedBy          string     `bun:"modified_by" json:"modified_by,omitempty"`
	CreatedAt           *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt           *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// FullName joins first and last name, used as a token claim.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsEnabled reports whether the account may authenticate.
func (u *User) IsEnabled() bool {
	return u != nil && u.Enabled
}

// RoleNames returns the names of all roles the user holds.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		if role != nil {
			names = append(names, string(role.Name))
		}
	}
	return names
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name RoleName) bool {
	for _, role := range u.Roles {
		if role != nil && role.Name == name {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the user holds the SUPER_ADMIN role.
func (u *User) IsSuperAdmin() bool {
	return u.HasRole(RoleSuperAdmin)
}

// HoldsProtectedRole reports whether any held role is protected.
func (u *User) HoldsProtectedRole() bool {
	for _, role := range u.Roles {
		if role != nil && role.Name.IsProtected() {
			return true
		}
	}
	return false
}

// AddRole appends a role if not already held.
func (u *User) AddRole(role *Role) {
	if role == nil || u.HasRole(role.Name) {
		return
	}
	u.Roles = append(u.Roles, role)
}

// RemoveRole drops the named role from the in-memory set. Removing an absent
// role is a no-op.
func (u *User) RemoveRole(name RoleName) {
	kept := u.Roles[:0]
	for _, role := range u.Roles {
		if role == nil || role.Name != name {
			kept = append(kept, role)
		}
	}
	u.Roles = kept
}

// MarkPasswordChanged clears the must-change flag after a successful
// self-service change.
func (u *User) MarkPasswordChanged() {
	u.PasswordNeedsChange = false
}

// Role is a named grant. Default roles are seeded at first run and can never
// be deleted.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rl"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          RoleName   `bun:"name,notnull,unique" json:"name,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	CreatedBy     string     `bun:"created_by" json:"created_by,omitempty"`
	ModifiedBy    string     `bun:"modified_by" json:"modified_by,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// UserRole is the join model backing the users<->roles m2m relation.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:url"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	RoleID        uuid.UUID `bun:"role_id,pk,type:uuid" json:"role_id"`
	Role          *Role     `bun:"rel:belongs-to,join:role_id=id" json:"-"`
}

// Verification is a pending single-use reset code. At most one live row per
// email exists at any time, enforced by supersede-on-issue.
type Verification struct {
	bun.BaseModel `bun:"table:verifications,alias:vrf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,nullzero,type:uuid" json:"user_id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Code          string     `bun:"code,notnull" json:"-"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// IsExpiredAt reports whether the code window elapsed at the given instant.
func (v *Verification) IsExpiredAt(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
