package staff

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
)

type repository struct {
	store core.Store
}

var _ Repository = (*repository)(nil) // interface compliance check

func NewRepository(store core.Store) Repository {
	vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
	).CheckAndPanic()
	return &repository{store: store}
}

func (repo *repository) decode(rec core.Record) (Account, error) {
	var doc document
	if err := rec.Decode(&doc); err != nil {
		return Account{}, err
	}
	return Account{
		ID:           rec.ID,
		Name:         doc.Name,
		Email:        doc.Email,
		Role:         doc.Role,
		IsActive:     doc.IsActive,
		PasswordHash: doc.PasswordHash,
		LastLogin:    doc.LastLogin,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}

func (repo *repository) CreateAccount(ctx context.Context, a Account) (Account, error) {
	rec, err := repo.store.Create(ctx, core.CollectionStaff, toDocument(a))
	if err != nil {
		return Account{}, errors.Wrap(err, "creating staff account")
	}
	return repo.decode(rec)
}

func (repo *repository) QueryAllAccounts(ctx context.Context) ([]Account, error) {
	recs, err := repo.store.GetAll(ctx, core.CollectionStaff)
	if err != nil {
		return nil, errors.Wrap(err, "querying staff accounts")
	}
	accounts := make([]Account, 0, len(recs))
	for _, rec := range recs {
		a, err := repo.decode(rec)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (repo *repository) GetAccountByID(ctx context.Context, id string) (Account, error) {
	if id == "" {
		return Account{}, ErrNotFound
	}
	rec, err := repo.store.GetByID(ctx, core.CollectionStaff, id)
	if err != nil {
		if errors.Cause(err) == core.ErrRecordNotFound {
			return Account{}, ErrNotFound
		}
		return Account{}, errors.Wrap(err, "finding staff account by ID")
	}
	return repo.decode(rec)
}

func (repo *repository) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	accounts, err := repo.QueryAllAccounts(ctx)
	if err != nil {
		return Account{}, err
	}
	for _, a := range accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (repo *repository) update(ctx context.Context, id string, partial map[string]interface{}) error {
	if _, err := repo.store.Update(ctx, core.CollectionStaff, id, partial); err != nil {
		if errors.Cause(err) == core.ErrRecordNotFound {
			return ErrNotFound
		}
		return errors.Wrap(err, "updating staff account")
	}
	return nil
}

func (repo *repository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return repo.update(ctx, id, map[string]interface{}{"last_login": at.UTC()})
}

func (repo *repository) SetPassword(ctx context.Context, id string, hash []byte) error {
	return repo.update(ctx, id, map[string]interface{}{"password_hash": hash})
}
