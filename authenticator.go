package users

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// LoginResult is what a successful authentication hands back to the
// transport layer.
type LoginResult struct {
	Token              string `json:"token"`
	MustChangePassword bool   `json:"must_change_password"`
}

// Authenticator verifies credentials and issues tokens
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

// Auther is the default Authenticator over the credential store.
type Auther struct {
	repo   RepositoryManager
	hasher PasswordHasher
	tokens TokenService
	mailer MailDispatcher
	logger Logger
	now    Clock
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, cfg Config) *Auther {
	tokens := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenTTL(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &Auther{
		repo:   repo,
		hasher: BcryptHasher{},
		tokens: tokens,
		mailer: noopDispatcher{},
		logger: defLogger{},
		now:    time.Now,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithPasswordHasher overrides the credential hasher.
func (s *Auther) WithPasswordHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithTokenService overrides the token service built from config.
func (s *Auther) WithTokenService(tokens TokenService) *Auther {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// WithMailDispatcher sets the fire-and-forget notification path.
func (s *Auther) WithMailDispatcher(mailer MailDispatcher) *Auther {
	if mailer != nil {
		s.mailer = mailer
	}
	return s
}

// WithClock overrides the time source, used in tests.
func (s *Auther) WithClock(clock Clock) *Auther {
	if clock != nil {
		s.now = clock
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// Login verifies the credential, checks enablement, records the login
// instant, queues a login notification and returns a signed token. The
// notification path can never fail the login.
func (s *Auther) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.Users().GetByUsername(ctx, username)
	if err != nil {
		if goerrors.IsNotFound(err) {
			s.logger.Info("Login attempt for unknown username", "username", username)
			return nil, ErrAuthenticationFailed
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := s.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Info("Login credential mismatch", "username", username)
		return nil, ErrAuthenticationFailed
	}

	// The credential verified against the manager row; reload the full
	// account with roles before issuing anything.
	account, err := s.repo.Users().GetByID(ctx, user.ID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account during login")
	}

	if !account.IsEnabled() {
		s.logger.Warn("Login blocked for disabled account", "username", username)
		return nil, ErrUserDisabled
	}

	loginAt := s.now()
	if err := s.repo.Users().TrackSuccessfulLogin(ctx, account, loginAt); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record login")
	}

	s.mailer.Dispatch(loginNotification(account, loginAt))

	token, err := s.tokens.Generate(account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User authenticated", "username", username, "at", loginAt)

	return &LoginResult{
		Token:              token,
		MustChangePassword: account.PasswordNeedsChange,
	}, nil
}

func loginNotification(user *User, at time.Time) Mail {
	return Mail{
		To:      user.Email,
		Subject: "Login Notification",
		Body: fmt.Sprintf(
			"Hello %s,\n\nYou signed in on %s.\n\nIf this was not you, change your password or contact the administrator.\n",
			user.FullName(),
			at.Format("02/01/2006 at 15:04:05"),
		),
	}
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(Mail) {}

var _ Authenticator = (*Auther)(nil)
