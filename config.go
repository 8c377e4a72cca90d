package users

import "time"

// SimpleConfig is a plain Config implementation for callers that do not
// bring their own configuration container.
type SimpleConfig struct {
	SigningKey         string
	TokenTTL           time.Duration
	Issuer             string
	Audience           []string
	VerificationWindow time.Duration
	SystemUserEmail    string
}

const (
	// DefaultTokenTTL is the token lifetime when none is configured.
	DefaultTokenTTL = 15 * time.Minute
	// DefaultVerificationWindow is the reset code lifetime when none is
	// configured.
	DefaultVerificationWindow = 5 * time.Minute
)

func (c SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c SimpleConfig) GetTokenTTL() time.Duration {
	if c.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return c.TokenTTL
}

func (c SimpleConfig) GetIssuer() string { return c.Issuer }

func (c SimpleConfig) GetAudience() []string { return c.Audience }

func (c SimpleConfig) GetVerificationWindow() time.Duration {
	if c.VerificationWindow <= 0 {
		return DefaultVerificationWindow
	}
	return c.VerificationWindow
}

func (c SimpleConfig) GetSystemUserEmail() string { return c.SystemUserEmail }

var _ Config = (*SimpleConfig)(nil)
