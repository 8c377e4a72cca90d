package users

import (
	"context"
	"time"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
)

// RequestPasswordResetMessage asks for a reset code to be mailed to the
// account behind the email, if one exists.
type RequestPasswordResetMessage struct {
	Email string `json:"email" doc:"Account email."`
}

func (m RequestPasswordResetMessage) Type() string { return "user.password_reset_request" }

// RequestPasswordResetHandler issues (or supersedes) the pending code.
type RequestPasswordResetHandler struct {
	issuer *VerificationIssuer
	logger Logger
}

// NewRequestPasswordResetHandler creates a handler with sane defaults.
func NewRequestPasswordResetHandler(issuer *VerificationIssuer) *RequestPasswordResetHandler {
	return &RequestPasswordResetHandler{
		issuer: issuer,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RequestPasswordResetHandler) WithLogger(logger Logger) *RequestPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestPasswordResetHandler) Execute(ctx context.Context, event RequestPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetHandler) execute(ctx context.Context, event RequestPasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := h.issuer.RequestCode(ctx, event.Email); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to request password reset")
	}

	return nil
}

var _ command.Commander[RequestPasswordResetMessage] = (*RequestPasswordResetHandler)(nil)
