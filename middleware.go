package users

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// TokenGuard protects routes with bearer token validation. The validated
// claims populate the request context as the acting identity, so audit
// columns downstream record who performed the mutation.
type TokenGuard struct {
	tokens       TokenService
	logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

// NewTokenGuard creates a guard over the given token service.
func NewTokenGuard(tokens TokenService) *TokenGuard {
	g := &TokenGuard{
		tokens: tokens,
		logger: defLogger{},
	}
	g.ErrorHandler = g.defaultErrHandler
	return g
}

// WithLogger overrides the logger used by the guard.
func (g *TokenGuard) WithLogger(logger Logger) *TokenGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Protected wraps a handler chain with bearer token validation.
func (g *TokenGuard) Protected() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			claims, err := g.claimsFromRequest(c)
			if err != nil {
				return g.ErrorHandler(c, err)
			}

			c.SetContext(WithActor(c.Context(), Actor{
				ID:       claims.Subject,
				Username: claims.Subject,
			}))

			return next(c)
		}
	}
}

// RequireRole wraps a handler chain with bearer token validation plus a
// role membership check.
func (g *TokenGuard) RequireRole(name RoleName) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			claims, err := g.claimsFromRequest(c)
			if err != nil {
				return g.ErrorHandler(c, err)
			}

			if !claimsHoldRole(claims, name) {
				g.logger.Info("Role check failed", "subject", claims.Subject, "role", name)
				return g.ErrorHandler(c, goerrors.New(
					"insufficient role for this operation",
					goerrors.CategoryAuth,
				).WithCode(goerrors.CodeForbidden))
			}

			c.SetContext(WithActor(c.Context(), Actor{
				ID:       claims.Subject,
				Username: claims.Subject,
			}))

			return next(c)
		}
	}
}

func (g *TokenGuard) claimsFromRequest(c router.Context) (*JWTClaims, error) {
	header := c.Header("Authorization")
	if header == "" {
		return nil, goerrors.New("missing authorization header", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, ErrTokenMalformed
	}

	return g.tokens.Validate(token)
}

func claimsHoldRole(claims *JWTClaims, name RoleName) bool {
	for _, held := range claims.Roles {
		if held == string(name) {
			return true
		}
	}
	return false
}

func (g *TokenGuard) defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "invalid authentication token").
			WithCode(goerrors.CodeUnauthorized)
	}

	g.logger.Info("Request rejected", "error", richErr.Message, "text_code", richErr.TextCode)

	status := richErr.Code
	if status == 0 {
		status = router.StatusUnauthorized
	}

	return c.JSON(status, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
