package users

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Guard enforces the protection rules around role membership and
// account/role deletion. SUPER_ADMIN accounts, the baseline USER role,
// and the default role definitions are shielded from destructive
// operations.
type Guard struct {
	repo   RepositoryManager
	logger Logger
}

// NewGuard creates a Guard over the given repositories.
func NewGuard(repo RepositoryManager) *Guard {
	return &Guard{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the guard.
func (g *Guard) WithLogger(logger Logger) *Guard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// AddRoleToUser grants the named role and returns the updated account.
// Granting SUPER_ADMIN through this path is refused, and granting a role
// the user already holds is a no-op.
func (g *Guard) AddRoleToUser(ctx context.Context, userID uuid.UUID, name RoleName) (*User, error) {
	if name.IsProtected() {
		return nil, ErrProtectedRole
	}

	account, err := g.repo.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if account.HasRole(name) {
		g.logger.Debug("Role already granted", "user_id", account.ID, "role", name)
		return account, nil
	}

	role, err := g.repo.Roles().GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	err = g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return g.repo.Users().AddRoleTx(ctx, tx, account.ID, role.ID)
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to grant role")
	}

	account.AddRole(role)
	g.logger.Info("Role granted", "user_id", account.ID, "role", name)
	return account, nil
}

// RemoveRoleFromUser revokes the named role and returns the updated
// account. Accounts holding SUPER_ADMIN keep their full role set, and the
// baseline USER role can never be revoked from anyone. Revoking a role the
// user does not hold is a no-op.
func (g *Guard) RemoveRoleFromUser(ctx context.Context, userID uuid.UUID, name RoleName) (*User, error) {
	account, err := g.repo.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if account.HoldsProtectedRole() {
		return nil, ErrProtectedUser
	}

	if name.IsBaseline() {
		return nil, ErrBaselineRole
	}

	if !account.HasRole(name) {
		g.logger.Debug("Role not held, nothing to revoke", "user_id", account.ID, "role", name)
		return account, nil
	}

	role, err := g.repo.Roles().GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	err = g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return g.repo.Users().RemoveRoleTx(ctx, tx, account.ID, role.ID)
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke role")
	}

	account.RemoveRole(name)
	g.logger.Info("Role revoked", "user_id", account.ID, "role", name)
	return account, nil
}

// DeleteUser removes a single account. Accounts holding SUPER_ADMIN are
// refused.
func (g *Guard) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	account, err := g.repo.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if account.HoldsProtectedRole() {
		return ErrProtectedUser
	}

	err = g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return g.repo.Users().DeleteTx(ctx, tx, account)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
	}

	g.logger.Info("User deleted", "user_id", account.ID, "username", account.Username)
	return nil
}

// DeleteUsers removes a batch of accounts, silently skipping any that
// hold SUPER_ADMIN. It returns how many were actually deleted.
func (g *Guard) DeleteUsers(ctx context.Context, userIDs []uuid.UUID) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	accounts, err := g.repo.Users().ListByIDs(ctx, userIDs)
	if err != nil {
		return 0, err
	}

	deletable := make([]*User, 0, len(accounts))
	skipped := 0
	for _, account := range accounts {
		if account.HoldsProtectedRole() {
			skipped++
			continue
		}
		deletable = append(deletable, account)
	}

	if skipped > 0 {
		g.logger.Warn("Skipping protected accounts in bulk delete", "skipped", skipped)
	}

	if len(deletable) == 0 {
		return 0, nil
	}

	err = g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, account := range deletable {
			if err := g.repo.Users().DeleteTx(ctx, tx, account); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete users")
	}

	g.logger.Info("Users deleted", "count", len(deletable))
	return len(deletable), nil
}

// DeleteRole removes a role definition. The four default roles are
// refused.
func (g *Guard) DeleteRole(ctx context.Context, roleID uuid.UUID) error {
	role, err := g.repo.Roles().GetByID(ctx, roleID)
	if err != nil {
		return err
	}

	if role.Name.IsDefault() {
		return ErrDefaultRole
	}

	err = g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return g.repo.Roles().DeleteTx(ctx, tx, role)
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete role")
	}

	g.logger.Info("Role deleted", "role", role.Name)
	return nil
}

// DeleteRoles removes a batch of role definitions, silently skipping the
// defaults. It returns how many were actually deleted.
func (g *Guard) DeleteRoles(ctx context.Context, roleIDs []uuid.UUID) (int, error) {
	if len(roleIDs) == 0 {
		return 0, nil
	}

	roles, err := g.repo.Roles().ListByIDs(ctx, roleIDs)
	if err != nil {
		return 0, err
	}

	deletable := make([]*Role, 0, len(roles))
	skipped := 0
	for _, role := range roles {
		if role.Name.IsDefault() {
			skipped++
			continue
		}
		deletable = append(deletable, role)
	}

	if skipped > 0 {
		g.logger.Warn("Skipping default roles in bulk delete", "skipped", skipped)
	}

	if len(deletable) == 0 {
		return 0, nil
	}

	err = g.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, role := range deletable {
			if err := g.repo.Roles().DeleteTx(ctx, tx, role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete roles")
	}

	g.logger.Info("Roles deleted", "count", len(deletable))
	return len(deletable), nil
}
