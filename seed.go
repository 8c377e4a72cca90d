package users

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Seeder provisions the baseline records a fresh database needs: the
// four default roles and the SYSTEM bootstrap account. Both steps are
// idempotent, seeding an already populated store is a no-op.
type Seeder struct {
	repo   RepositoryManager
	config Config
	logger Logger
}

// NewSeeder creates a Seeder for the given repositories.
func NewSeeder(repo RepositoryManager, cfg Config) *Seeder {
	return &Seeder{
		repo:   repo,
		config: cfg,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used during seeding.
func (s *Seeder) WithLogger(logger Logger) *Seeder {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Seed ensures default roles and the SYSTEM user exist.
func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.seedRoles(ctx); err != nil {
		return err
	}
	return s.seedSystemUser(ctx)
}

func (s *Seeder) seedRoles(ctx context.Context) error {
	count, err := s.repo.Roles().Count(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		s.logger.Debug("Roles already seeded", "count", count)
		return nil
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, name := range DefaultRoles() {
			role := &Role{
				ID:          uuid.New(),
				Name:        name,
				Description: DescribeDefaultRole(name),
			}
			if _, err := s.repo.Roles().CreateTx(ctx, tx, role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to seed default roles")
	}

	s.logger.Info("Default roles created", "count", len(DefaultRoles()))
	return nil
}

func (s *Seeder) seedSystemUser(ctx context.Context) error {
	count, err := s.repo.Users().Count(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		s.logger.Debug("Users already seeded", "count", count)
		return nil
	}

	email := s.config.GetSystemUserEmail()

	oneTime := uuid.NewString()
	hash, err := HashPassword(oneTime)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash bootstrap password")
	}

	account := &User{
		Username:            SystemActor,
		FirstName:           "System",
		LastName:            "Account",
		Email:               email,
		PasswordHash:        hash,
		Enabled:             true,
		PasswordNeedsChange: true,
		CreatedBy:           SystemActor,
		ModifiedBy:          SystemActor,
	}

	// Hashing the email keeps the bootstrap account's identifier stable
	// across environments.
	if id, err := hashid.NewUUID(email); err == nil {
		account.ID = id
	} else {
		account.ID = uuid.New()
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.Users().CreateTx(ctx, tx, account)
		if err != nil {
			return err
		}

		for _, name := range DefaultRoles() {
			role, err := s.repo.Roles().GetByNameTx(ctx, tx, name)
			if err != nil {
				return err
			}
			if err := s.repo.Users().AddRoleTx(ctx, tx, created.ID, role.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to seed system user")
	}

	s.logger.Info("System user created", "user_id", account.ID, "email", email)
	// Printed exactly once, the hash is not recoverable afterwards.
	s.logger.Warn("One-time system password, change it on first login", "password", oneTime)
	return nil
}
