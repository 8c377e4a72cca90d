package users

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ResetPasswordMessage applies a new password gated by a mailed
// verification code.
type ResetPasswordMessage struct {
	Email           string `json:"email" doc:"Account email."`
	Code            string `json:"code" doc:"6 digit verification code."`
	Password        string `json:"password" doc:"New password."`
	ConfirmPassword string `json:"confirm_password" doc:"New password, repeated."`
}

func (m ResetPasswordMessage) Type() string { return "user.password_reset" }

// ResetPasswordHandler validates the code and swaps the credential. The
// consumed code and the password write commit in one transaction: a
// consumed code with an unchanged password can never be observed, nor the
// reverse.
type ResetPasswordHandler struct {
	repo   RepositoryManager
	issuer *VerificationIssuer
	hasher PasswordHasher
	mailer MailDispatcher
	logger Logger
	now    Clock
}

// NewResetPasswordHandler creates a handler with sane defaults.
func NewResetPasswordHandler(repo RepositoryManager, issuer *VerificationIssuer) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:   repo,
		issuer: issuer,
		hasher: BcryptHasher{},
		mailer: noopDispatcher{},
		logger: defLogger{},
		now:    time.Now,
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ResetPasswordHandler) WithLogger(logger Logger) *ResetPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithPasswordHasher overrides the credential hasher.
func (h *ResetPasswordHandler) WithPasswordHasher(hasher PasswordHasher) *ResetPasswordHandler {
	if hasher != nil {
		h.hasher = hasher
	}
	return h
}

// WithMailDispatcher sets the fire-and-forget notification path.
func (h *ResetPasswordHandler) WithMailDispatcher(mailer MailDispatcher) *ResetPasswordHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

// WithClock overrides the time source, used in tests.
func (h *ResetPasswordHandler) WithClock(clock Clock) *ResetPasswordHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := h.issuer.ValidateCode(ctx, event.Email, event.Code)
	if err != nil {
		return err
	}

	if event.Password != event.ConfirmPassword {
		return ErrPasswordMismatch
	}

	if err := ValidatePasswordStrength(event.Password); err != nil {
		return err
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	var account *User

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err = h.repo.Users().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			return err
		}

		// Deleting the row first linearizes concurrent resets: only one
		// transaction sees the code as present.
		if err := h.repo.Verifications().ConsumeTx(ctx, tx, record.ID); err != nil {
			return err
		}

		// A reset is a legitimate password-setting event, so it also clears
		// the must-change flag.
		return h.repo.Users().UpdatePasswordTx(ctx, tx, account.ID, hash, true)
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	h.logger.Info("Password reset completed", "user_id", account.ID)
	h.mailer.Dispatch(passwordChangedMail(account.Email, h.now()))

	return nil
}

func passwordChangedMail(email string, at time.Time) Mail {
	return Mail{
		To:      email,
		Subject: "Password Changed",
		Body: fmt.Sprintf(
			"Hello,\n\nYour password has just been changed at %s.\nIf you did not request this, please contact the administrator.\n",
			at.Format("02/01/2006 at 15:04:05"),
		),
	}
}

var _ command.Commander[ResetPasswordMessage] = (*ResetPasswordHandler)(nil)
