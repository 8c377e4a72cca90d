package users

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	hasUppercase = regexp.MustCompile(`[A-Z]`)
	hasLowercase = regexp.MustCompile(`[a-z]`)
	hasDigit     = regexp.MustCompile(`[0-9]`)
)

// PasswordPolicyRules is the strength policy for new passwords: at least 8
// characters with an uppercase letter, a lowercase letter and a digit.
var PasswordPolicyRules = []validation.Rule{
	validation.Required,
	validation.Length(8, 0),
	validation.Match(hasUppercase).Error("must contain an uppercase letter"),
	validation.Match(hasLowercase).Error("must contain a lowercase letter"),
	validation.Match(hasDigit).Error("must contain a digit"),
}

// ValidatePasswordStrength checks a candidate password against the policy.
func ValidatePasswordStrength(password string) error {
	if password == "" {
		return ErrNoEmptyString
	}
	if err := validation.Validate(password, PasswordPolicyRules...); err != nil {
		return ErrWeakPassword
	}
	return nil
}
