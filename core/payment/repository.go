package payment

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
)

var (
	// errors
	ErrInvalidAmount   = errors.New("payment amount must be a positive whole number")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrNoSchedule      = errors.New("no fee schedule is configured for this student")
	ErrPaymentRecorded = errors.New("only zero-amount payments can be deleted")
)

type Repository interface {
	CreatePayment(ctx context.Context, p Payment) (Payment, error)
	QueryAllPayments(ctx context.Context) ([]Payment, error)
	// QueryStudentPayments returns the payments of a student, oldest first.
	QueryStudentPayments(ctx context.Context, studentID string) ([]Payment, error)
	GetPayment(ctx context.Context, id string) (Payment, error)
	DeletePayment(ctx context.Context, id string) error
}

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

func (repo *repository) decode(rec core.Record) (Payment, error) {
	var p Payment
	if err := rec.DecodeWithMeta(&p); err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (repo *repository) CreatePayment(ctx context.Context, p Payment) (Payment, error) {
	rec, err := repo.store.Create(ctx, core.CollectionPayments, p)
	if err != nil {
		return Payment{}, errors.Wrap(err, "creating payment")
	}
	return repo.decode(rec)
}

func (repo *repository) QueryAllPayments(ctx context.Context) ([]Payment, error) {
	recs, err := repo.store.GetAll(ctx, core.CollectionPayments)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	payments := make([]Payment, 0, len(recs))
	for _, rec := range recs {
		p, err := repo.decode(rec)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func (repo *repository) QueryStudentPayments(ctx context.Context, studentID string) ([]Payment, error) {
	all, err := repo.QueryAllPayments(ctx)
	if err != nil {
		return nil, err
	}
	payments := make([]Payment, 0)
	for _, p := range all {
		if p.StudentID == studentID {
			payments = append(payments, p)
		}
	}
	return payments, nil
}

func (repo *repository) GetPayment(ctx context.Context, id string) (Payment, error) {
	if id == "" {
		return Payment{}, ErrPaymentNotFound
	}
	rec, err := repo.store.GetByID(ctx, core.CollectionPayments, id)
	if err != nil {
		if errors.Cause(err) == core.ErrRecordNotFound {
			return Payment{}, ErrPaymentNotFound
		}
		return Payment{}, errors.Wrap(err, "finding payment by ID")
	}
	return repo.decode(rec)
}

func (repo *repository) DeletePayment(ctx context.Context, id string) error {
	ok, err := repo.store.Delete(ctx, core.CollectionPayments, id)
	if err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	if !ok {
		return ErrPaymentNotFound
	}
	return nil
}
