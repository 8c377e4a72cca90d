package users

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the credential store: account lookups, credential updates and the
// role set. Mutating methods with a Tx suffix run inside a caller-owned
// transaction so password and verification writes stay linearized.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User, at time.Time) error
	UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, clearNeedsChange bool) error
	AddRoleTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error
	RemoveRoleTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error
	DeleteTx(ctx context.Context, tx bun.IDB, user *User) error
	Count(ctx context.Context) (int, error)
}

type usersRepo struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*usersRepo)(nil)

// NewUsersRepository builds the bun-backed credential store.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &usersRepo{
		Repository: repo,
		db:         db,
	}
}

func (r *usersRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *usersRepo) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	return r.getWhere(ctx, tx, "?TableAlias.id = ?", id)
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getWhere(ctx, r.db, "?TableAlias.username = ?", username)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.GetByEmailTx(ctx, r.db, email)
}

func (r *usersRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return r.getWhere(ctx, tx, "?TableAlias.email = ?", email)
}

func (r *usersRepo) getWhere(ctx context.Context, tx bun.IDB, clause string, arg any) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Relation("Roles").
		Where(clause, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user")
	}
	return record, nil
}

func (r *usersRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error) {
	if len(ids) == 0 {
		return []*User{}, nil
	}

	var records []*User
	err := r.db.NewSelect().
		Model(&records).
		Relation("Roles").
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list users")
	}
	return records, nil
}

func (r *usersRepo) Create(ctx context.Context, record *User) (*User, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *usersRepo) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(ctx, record)
	return r.Repository.CreateTx(ctx, tx, record)
}

func (r *usersRepo) TrackSuccessfulLogin(ctx context.Context, user *User, at time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*User)(nil)).
		Set("last_login_at = ?", at).
		Set("modified_by = ?", auditActor(ctx)).
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to record last login")
	}
	return nil
}

func (r *usersRepo) UpdatePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, clearNeedsChange bool) error {
	q := tx.NewUpdate().
		Model((*User)(nil)).
		Set("password_hash = ?", hash).
		Set("modified_by = ?", auditActor(ctx)).
		Where("id = ?", id)

	if clearNeedsChange {
		q = q.Set("password_needs_change = ?", false)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to update password")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *usersRepo) AddRoleTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error {
	link := &UserRole{UserID: userID, RoleID: roleID}
	_, err := tx.NewInsert().
		Model(link).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to grant role")
	}
	return nil
}

func (r *usersRepo) RemoveRoleTx(ctx context.Context, tx bun.IDB, userID, roleID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*UserRole)(nil)).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to revoke role")
	}
	return nil
}

func (r *usersRepo) DeleteTx(ctx context.Context, tx bun.IDB, user *User) error {
	if _, err := tx.NewDelete().
		Model((*UserRole)(nil)).
		Where("user_id = ?", user.ID).
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to detach roles")
	}

	if _, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", user.ID).
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete user")
	}

	return nil
}

func (r *usersRepo) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*User)(nil)).
		Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to count users")
	}
	return count, nil
}

func prepareUserDefaults(ctx context.Context, record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	actor := auditActor(ctx)
	if record.CreatedBy == "" {
		record.CreatedBy = actor
	}
	record.ModifiedBy = actor
}
