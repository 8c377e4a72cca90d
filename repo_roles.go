package users

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Roles is the role catalog.
type Roles interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Role, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Role, error)
	GetByName(ctx context.Context, name RoleName) (*Role, error)
	GetByNameTx(ctx context.Context, tx bun.IDB, name RoleName) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Role, error)
	Create(ctx context.Context, record *Role) (*Role, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Role) (*Role, error)
	DeleteTx(ctx context.Context, tx bun.IDB, role *Role) error
	Count(ctx context.Context) (int, error)
}

type rolesRepo struct {
	repository.Repository[*Role]
	db *bun.DB
}

var _ Roles = (*rolesRepo)(nil)

// NewRolesRepository builds the bun-backed role catalog.
func NewRolesRepository(db *bun.DB) Roles {
	repo := repository.NewRepository[*Role](db, repository.ModelHandlers[*Role]{
		NewRecord: func() *Role { return &Role{} },
		GetID: func(r *Role) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Role, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &rolesRepo{
		Repository: repo,
		db:         db,
	}
}

func (r *rolesRepo) GetByID(ctx context.Context, id uuid.UUID) (*Role, error) {
	return r.GetByIDTx(ctx, r.db, id)
}

func (r *rolesRepo) GetByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Role, error) {
	return r.getWhere(ctx, tx, "?TableAlias.id = ?", id)
}

func (r *rolesRepo) GetByName(ctx context.Context, name RoleName) (*Role, error) {
	return r.GetByNameTx(ctx, r.db, name)
}

func (r *rolesRepo) GetByNameTx(ctx context.Context, tx bun.IDB, name RoleName) (*Role, error) {
	return r.getWhere(ctx, tx, "?TableAlias.name = ?", string(name))
}

func (r *rolesRepo) getWhere(ctx context.Context, tx bun.IDB, clause string, arg any) (*Role, error) {
	record := &Role{}
	err := tx.NewSelect().
		Model(record).
		Where(clause, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve role")
	}
	return record, nil
}

func (r *rolesRepo) List(ctx context.Context) ([]*Role, error) {
	var records []*Role
	err := r.db.NewSelect().
		Model(&records).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list roles")
	}
	return records, nil
}

func (r *rolesRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Role, error) {
	if len(ids) == 0 {
		return []*Role{}, nil
	}

	var records []*Role
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list roles")
	}
	return records, nil
}

func (r *rolesRepo) Create(ctx context.Context, record *Role) (*Role, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *rolesRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Role) (*Role, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	actor := auditActor(ctx)
	if record.CreatedBy == "" {
		record.CreatedBy = actor
	}
	record.ModifiedBy = actor

	return r.Repository.CreateTx(ctx, tx, record)
}

func (r *rolesRepo) DeleteTx(ctx context.Context, tx bun.IDB, role *Role) error {
	if _, err := tx.NewDelete().
		Model((*UserRole)(nil)).
		Where("role_id = ?", role.ID).
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to detach role from users")
	}

	if _, err := tx.NewDelete().
		Model((*Role)(nil)).
		Where("id = ?", role.ID).
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete role")
	}

	return nil
}

func (r *rolesRepo) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*Role)(nil)).
		Count(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to count roles")
	}
	return count, nil
}
