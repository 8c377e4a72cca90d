package users

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories and the shared transaction
// boundary. Every mutating operation in the core runs through RunInTx.
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
	Roles() Roles
	Verifications() Verifications
}

type mngr struct {
	db            *bun.DB
	users         Users
	roles         Roles
	verifications Verifications
}

// NewRepositoryManager wires the three stores over a shared bun handle and
// registers the m2m join model.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	db.RegisterModel((*UserRole)(nil))

	return &mngr{
		db:            db,
		users:         NewUsersRepository(db),
		roles:         NewRolesRepository(db),
		verifications: NewVerificationsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.roles == nil {
		return errors.New("repository roles should be initialized")
	}

	if m.verifications == nil {
		return errors.New("repository verifications should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Roles() Roles {
	return m.roles
}

func (m mngr) Verifications() Verifications {
	return m.verifications
}
