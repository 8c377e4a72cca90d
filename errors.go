package users

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds     = "invalid_credentials"
	TextCodeUserNotFound     = "user_not_found"
	TextCodeUserDisabled     = "user_disabled"
	TextCodeRoleNotFound     = "role_not_found"
	TextCodeCodeNotFound     = "verification_code_not_found"
	TextCodeCodeExpired      = "verification_code_expired"
	TextCodePasswordMismatch = "password_mismatch"
	TextCodeWeakPassword     = "weak_password"
	TextCodeProtectedRole    = "protected_role"
	TextCodeProtectedUser    = "protected_user"
	TextCodeDefaultRole      = "default_role"
	TextCodeBaselineRole     = "baseline_role"
	TextCodeEmptyPassword    = "empty_password"
)

// ErrAuthenticationFailed is returned when the presented credentials do not verify.
var ErrAuthenticationFailed = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned when no user matches the given identifier.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrUserDisabled is returned when a disabled account presents valid credentials.
var ErrUserDisabled = errors.New("user account is disabled", errors.CategoryAuth).
	WithTextCode(TextCodeUserDisabled).
	WithCode(errors.CodeForbidden)

// ErrRoleNotFound is returned when no role matches the given id or name.
var ErrRoleNotFound = errors.New("role not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRoleNotFound).
	WithCode(errors.CodeNotFound)

// ErrCodeNotFound is returned when no verification matches the (email, code) pair,
// including codes already consumed by a previous reset.
var ErrCodeNotFound = errors.New("verification code not found", errors.CategoryNotFound).
	WithTextCode(TextCodeCodeNotFound).
	WithCode(errors.CodeNotFound)

// ErrCodeExpired is returned when the verification window has elapsed. A
// replacement code has already been issued by the time callers see this.
var ErrCodeExpired = errors.New("verification code has expired, a new code has been sent", errors.CategoryValidation).
	WithTextCode(TextCodeCodeExpired).
	WithCode(errors.CodeBadRequest)

// ErrPasswordMismatch is returned when password and confirmation differ.
var ErrPasswordMismatch = errors.New("passwords do not match", errors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(errors.CodeBadRequest)

// ErrWeakPassword is returned when a new password fails the strength policy.
var ErrWeakPassword = errors.New("password must be at least 8 characters and contain an uppercase letter, a lowercase letter and a digit", errors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword).
	WithCode(errors.CodeBadRequest)

// ErrProtectedRole is returned when granting or revoking SUPER_ADMIN through the
// generic role-edit path.
var ErrProtectedRole = errors.New("the super admin role cannot be granted or revoked", errors.CategoryAuth).
	WithTextCode(TextCodeProtectedRole).
	WithCode(errors.CodeForbidden)

// ErrProtectedUser is returned when deleting or stripping roles from an account
// that holds SUPER_ADMIN.
var ErrProtectedUser = errors.New("super admin accounts cannot be deleted or have roles removed", errors.CategoryAuth).
	WithTextCode(TextCodeProtectedUser).
	WithCode(errors.CodeForbidden)

// ErrDefaultRole is returned when deleting one of the built-in roles.
var ErrDefaultRole = errors.New("default roles cannot be deleted", errors.CategoryAuth).
	WithTextCode(TextCodeDefaultRole).
	WithCode(errors.CodeForbidden)

// ErrBaselineRole is returned when removing the baseline USER role from any account.
var ErrBaselineRole = errors.New("the baseline user role cannot be removed", errors.CategoryAuth).
	WithTextCode(TextCodeBaselineRole).
	WithCode(errors.CodeForbidden)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)
