package users

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Verifications is the ledger of pending reset codes. Consume and supersede
// run inside the caller's transaction so concurrent resets for the same
// email are linearized by the row they touch.
type Verifications interface {
	GetByEmailAndCode(ctx context.Context, email, code string) (*Verification, error)
	GetByEmailAndCodeTx(ctx context.Context, tx bun.IDB, email, code string) (*Verification, error)
	ListByEmail(ctx context.Context, email string) ([]*Verification, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Verification) (*Verification, error)
	DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error
	// ConsumeTx deletes the code row by id and fails with ErrCodeNotFound when
	// the row is already gone, making single-use race-safe.
	ConsumeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	DeleteTx(ctx context.Context, tx bun.IDB, record *Verification) error
}

type verificationsRepo struct {
	repository.Repository[*Verification]
	db *bun.DB
}

var _ Verifications = (*verificationsRepo)(nil)

// NewVerificationsRepository builds the bun-backed verification ledger.
func NewVerificationsRepository(db *bun.DB) Verifications {
	repo := repository.NewRepository[*Verification](db, repository.ModelHandlers[*Verification]{
		NewRecord: func() *Verification { return &Verification{} },
		GetID: func(v *Verification) uuid.UUID {
			if v == nil {
				return uuid.Nil
			}
			return v.ID
		},
		SetID: func(v *Verification, id uuid.UUID) {
			if v != nil {
				v.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &verificationsRepo{
		Repository: repo,
		db:         db,
	}
}

func (r *verificationsRepo) GetByEmailAndCode(ctx context.Context, email, code string) (*Verification, error) {
	return r.GetByEmailAndCodeTx(ctx, r.db, email, code)
}

func (r *verificationsRepo) GetByEmailAndCodeTx(ctx context.Context, tx bun.IDB, email, code string) (*Verification, error) {
	record := &Verification{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ? AND ?TableAlias.code = ?", email, code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve verification code")
	}
	return record, nil
}

func (r *verificationsRepo) ListByEmail(ctx context.Context, email string) ([]*Verification, error) {
	var records []*Verification
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.email = ?", email).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list verification codes")
	}
	return records, nil
}

func (r *verificationsRepo) CreateTx(ctx context.Context, tx bun.IDB, record *Verification) (*Verification, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.Repository.CreateTx(ctx, tx, record)
}

func (r *verificationsRepo) DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error {
	_, err := tx.NewDelete().
		Model((*Verification)(nil)).
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to supersede verification codes")
	}
	return nil
}

func (r *verificationsRepo) ConsumeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*Verification)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to consume verification code")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrCodeNotFound
	}

	return nil
}

func (r *verificationsRepo) DeleteTx(ctx context.Context, tx bun.IDB, record *Verification) error {
	_, err := tx.NewDelete().
		Model((*Verification)(nil)).
		Where("id = ?", record.ID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete verification code")
	}
	return nil
}
