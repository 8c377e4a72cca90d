package users

import (
	"context"
	"time"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ChangePasswordMessage is the authenticated self-service password
// change, only honored while the account is flagged as needing one.
type ChangePasswordMessage struct {
	Username        string `json:"username" doc:"Account username."`
	Password        string `json:"password" doc:"New password."`
	ConfirmPassword string `json:"confirm_password" doc:"New password, repeated."`
}

func (m ChangePasswordMessage) Type() string { return "user.password_change" }

// ChangePasswordHandler processes ChangePasswordMessage commands.
type ChangePasswordHandler struct {
	repo   RepositoryManager
	hasher PasswordHasher
	mailer MailDispatcher
	logger Logger
	now    Clock
}

// NewChangePasswordHandler creates a handler with sane defaults.
func NewChangePasswordHandler(repo RepositoryManager) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		repo:   repo,
		hasher: BcryptHasher{},
		mailer: noopDispatcher{},
		logger: defLogger{},
		now:    time.Now,
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ChangePasswordHandler) WithLogger(logger Logger) *ChangePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithPasswordHasher overrides the credential hasher.
func (h *ChangePasswordHandler) WithPasswordHasher(hasher PasswordHasher) *ChangePasswordHandler {
	if hasher != nil {
		h.hasher = hasher
	}
	return h
}

// WithMailDispatcher sets the fire-and-forget notification path.
func (h *ChangePasswordHandler) WithMailDispatcher(mailer MailDispatcher) *ChangePasswordHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

// WithClock overrides the time source, used in tests.
func (h *ChangePasswordHandler) WithClock(clock Clock) *ChangePasswordHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Password != event.ConfirmPassword {
		return ErrPasswordMismatch
	}

	account, err := h.repo.Users().GetByUsername(ctx, event.Username)
	if err != nil {
		return err
	}

	if !account.PasswordNeedsChange {
		h.logger.Info("Password change skipped, account not flagged", "user_id", account.ID)
		return nil
	}

	if err := ValidatePasswordStrength(event.Password); err != nil {
		return err
	}

	hash, err := h.hasher.HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().UpdatePasswordTx(ctx, tx, account.ID, hash, true)
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
	}

	h.logger.Info("Password changed", "user_id", account.ID)
	h.mailer.Dispatch(passwordChangedMail(account.Email, h.now()))

	return nil
}

var _ command.Commander[ChangePasswordMessage] = (*ChangePasswordHandler)(nil)
