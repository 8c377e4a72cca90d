package users

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationIssuer creates, supersedes and validates time-bound single-use
// reset codes. At most one live code exists per email: issuing deletes any
// previous row before inserting the replacement.
type VerificationIssuer struct {
	repo   RepositoryManager
	codes  CodeSource
	mailer MailDispatcher
	logger Logger
	now    Clock
	window time.Duration
}

// NewVerificationIssuer builds an issuer with the configured code window.
func NewVerificationIssuer(repo RepositoryManager, cfg Config) *VerificationIssuer {
	window := cfg.GetVerificationWindow()
	if window <= 0 {
		window = DefaultVerificationWindow
	}

	return &VerificationIssuer{
		repo:   repo,
		codes:  SecureCodeSource{},
		mailer: noopDispatcher{},
		logger: defLogger{},
		now:    time.Now,
		window: window,
	}
}

func (v *VerificationIssuer) WithLogger(logger Logger) *VerificationIssuer {
	if logger != nil {
		v.logger = logger
	}
	return v
}

// WithCodeSource overrides the random source, used in tests.
func (v *VerificationIssuer) WithCodeSource(codes CodeSource) *VerificationIssuer {
	if codes != nil {
		v.codes = codes
	}
	return v
}

// WithMailDispatcher sets the fire-and-forget notification path.
func (v *VerificationIssuer) WithMailDispatcher(mailer MailDispatcher) *VerificationIssuer {
	if mailer != nil {
		v.mailer = mailer
	}
	return v
}

// WithClock overrides the time source, used in tests.
func (v *VerificationIssuer) WithClock(clock Clock) *VerificationIssuer {
	if clock != nil {
		v.now = clock
	}
	return v
}

// Window returns the configured code lifetime.
func (v *VerificationIssuer) Window() time.Duration {
	return v.window
}

// RequestCode issues a fresh code for the account behind email, superseding
// any pending one. An unknown email is logged and reported as success so
// the endpoint cannot be used to probe which accounts exist.
func (v *VerificationIssuer) RequestCode(ctx context.Context, email string) error {
	var issued *Verification

	err := v.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := v.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if goerrors.IsNotFound(err) {
				v.logger.Warn("Reset code requested for unknown email", "email", email)
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for reset code")
		}

		issued, err = v.issueTx(ctx, tx, email, &user.ID)
		return err
	})
	if err != nil {
		return err
	}

	if issued != nil {
		v.mailer.Dispatch(verificationMail(issued, v.window))
	}

	return nil
}

// ValidateCode resolves the (email, code) pair. A missing pair fails with
// ErrCodeNotFound. An expired pair is deleted, replaced with a fresh
// persisted code, and the call fails with ErrCodeExpired; the replacement
// survives the failure. A valid record is returned without being consumed:
// the caller deletes it in the same transaction as the mutation it gates.
func (v *VerificationIssuer) ValidateCode(ctx context.Context, email, code string) (*Verification, error) {
	var record *Verification
	var replacement *Verification

	err := v.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		found, err := v.repo.Verifications().GetByEmailAndCodeTx(ctx, tx, email, code)
		if err != nil {
			return err
		}

		if !found.IsExpiredAt(v.now()) {
			record = found
			return nil
		}

		if err := v.repo.Verifications().DeleteTx(ctx, tx, found); err != nil {
			return err
		}

		replacement, err = v.issueTx(ctx, tx, email, found.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// The replacement row is committed before the failure is reported, so a
	// rolled-back caller cannot strand the account without a live code.
	if replacement != nil {
		v.logger.Info("Expired code superseded", "email", email, "verification_id", replacement.ID)
		v.mailer.Dispatch(verificationMail(replacement, v.window))
		return nil, ErrCodeExpired
	}

	return record, nil
}

func (v *VerificationIssuer) issueTx(ctx context.Context, tx bun.IDB, email string, userID *uuid.UUID) (*Verification, error) {
	if err := v.repo.Verifications().DeleteByEmailTx(ctx, tx, email); err != nil {
		return nil, err
	}

	code, err := v.codes.VerificationCode()
	if err != nil {
		return nil, err
	}

	record := &Verification{
		UserID:    userID,
		Email:     email,
		Code:      code,
		ExpiresAt: v.now().Add(v.window),
	}

	return v.repo.Verifications().CreateTx(ctx, tx, record)
}

func verificationMail(record *Verification, window time.Duration) Mail {
	return Mail{
		To:      record.Email,
		Subject: "Password Reset Code",
		Body: fmt.Sprintf(
			"Hello,\n\nHere is your verification code to change your password: %s.\nThis code expires in %d minutes.\n\nIf you did not request this, please contact the administrator.\n",
			record.Code,
			int(window.Minutes()),
		),
	}
}
