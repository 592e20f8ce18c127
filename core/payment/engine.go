package payment

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/school"
)

// Engine records payments, splitting them across the installments of the student's fee schedule.
type Engine struct {
	store    core.Store
	payments Repository
	students school.Repository
	resolver ScheduleResolver
	receipts *ReceiptGenerator
	logger   core.Logger
	nowFunc  func() time.Time
}

func NewEngine(store core.Store, resolver ScheduleResolver, students school.Repository, logger core.Logger) *Engine {
	vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
		vala.IsNotNil(resolver, "resolver"),
		vala.IsNotNil(students, "students"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Engine{
		store:    store,
		payments: NewRepository(store),
		students: students,
		resolver: resolver,
		receipts: NewReceiptGenerator(),
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// Allocate records a payment of req.Amount for req.StudentID.
//
// With req.Label set, a single Other payment is recorded. With req.Ordinal set, the whole amount
// goes to that installment, whether it is already settled or not. Otherwise the amount is split
// across the installments still due, lowest ordinal first, and what is left is recorded as an
// unassigned tuition payment (surplus). Students without a fee schedule get a single unassigned
// tuition payment.
//
// The amount, the label and the student are checked before anything is written. When the store supports
// transactions, the call is all-or-nothing; otherwise a failed write returns the payments
// persisted so far along with the error.
func (e *Engine) Allocate(ctx context.Context, req Request) (Result, error) {
	if req.Amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	if req.Ordinal < 0 {
		return Result{}, core.NewValidationError(nil, core.FieldError{Field: "installment_ordinal", Error: "must be positive"})
	}
	req.StudentID = core.CleanString(req.StudentID)
	req.Label = core.CleanString(req.Label, true /* lower */)
	if IsReservedLabel(req.Label) {
		return Result{}, core.NewValidationError(nil, core.FieldError{Field: "label", Error: "reserved payment type"})
	}
	std, err := e.students.GetStudent(ctx, req.StudentID)
	if err != nil {
		return Result{}, err
	}

	base := Payment{
		StudentID: std.ID,
		Date:      req.Date,
		Mode:      req.Mode,
		Note:      req.Note,
	}
	if base.Date == "" {
		base.Date = core.FormatDate(e.nowFunc())
	}

	var (
		planned []Payment
		res     = Result{Allocations: make([]Allocation, 0)}
	)
	switch {
	case req.Label != "":
		p := base
		p.Type, p.Amount = Other(req.Label), req.Amount
		planned = append(planned, p)

	case req.Ordinal > 0:
		alloc := Allocation{InstallmentOrdinal: req.Ordinal, Amount: req.Amount}
		p := base
		p.Type, p.Amount = ForInstallment(req.Ordinal), req.Amount
		planned = append(planned, p)
		res.Allocations = append(res.Allocations, alloc)

	default:
		sched, found, err := e.resolver.Resolve(ctx, std.ID)
		if err != nil {
			return Result{}, errors.Wrap(err, "resolving fee schedule")
		}
		if !found {
			e.logger.Info("no fee schedule found, recording unassigned tuition payment", map[string]interface{}{
				"student_id": std.ID,
				"amount":     req.Amount,
			})
			p := base
			p.Type, p.Amount = Tuition(0), req.Amount
			planned = append(planned, p)
			break
		}

		history, err := e.payments.QueryStudentPayments(ctx, std.ID)
		if err != nil {
			return Result{}, err
		}
		allocs, surplus := Plan(sched.Installments, history, req.Amount)
		for _, alloc := range allocs {
			p := base
			p.Type, p.Amount = ForInstallment(alloc.InstallmentOrdinal), alloc.Amount
			p.Allocations = []Allocation{alloc}
			planned = append(planned, p)
		}
		if surplus > 0 {
			e.logger.Info("payment exceeds the amount due, recording surplus", map[string]interface{}{
				"student_id": std.ID,
				"surplus":    surplus,
			})
			p := base
			p.Type, p.Amount, p.Surplus = Tuition(0), surplus, surplus
			planned = append(planned, p)
		}
		res.Allocations = allocs
		res.Surplus = surplus
	}

	res.Payments, err = e.record(ctx, planned)
	return res, err
}

// record writes the planned payments, stamping each one with a fresh receipt number.
func (e *Engine) record(ctx context.Context, planned []Payment) ([]Payment, error) {
	created := make([]Payment, 0, len(planned))
	err := core.RunInTx(ctx, e.store, func(tx core.Store) error {
		repo := NewRepository(tx)
		for _, p := range planned {
			p.ReceiptNumber = e.receipts.Next()
			saved, err := repo.CreatePayment(ctx, p)
			if err != nil {
				return err
			}
			created = append(created, saved)
		}
		return nil
	})
	if err != nil {
		if _, atomic := e.store.(core.Transactor); atomic {
			created = created[:0]
		}
		e.logger.Error("recording payment", err, map[string]interface{}{
			"planned":   len(planned),
			"persisted": len(created),
		})
		return created, err
	}
	return created, nil
}

// DeleteZeroAmount removes the payments of amount 0 of a student, or of every student when
// studentID is empty, and returns how many were removed.
func (e *Engine) DeleteZeroAmount(ctx context.Context, studentID string) (int, error) {
	all, err := e.payments.QueryAllPayments(ctx)
	if err != nil {
		return 0, err
	}

	var removed int
	err = core.RunInTx(ctx, e.store, func(tx core.Store) error {
		repo := NewRepository(tx)
		for _, p := range all {
			if p.Amount != 0 || (studentID != "" && p.StudentID != studentID) {
				continue
			}
			if err := repo.DeletePayment(ctx, p.ID); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		if _, atomic := e.store.(core.Transactor); atomic {
			removed = 0
		}
		return removed, err
	}
	if removed > 0 {
		e.logger.Info("deleted zero-amount payments", map[string]interface{}{
			"student_id": studentID,
			"count":      removed,
		})
	}
	return removed, nil
}

// DeletePayment removes a single payment of amount 0. Payments carrying an amount are part of
// the settlement history and are never deleted.
func (e *Engine) DeletePayment(ctx context.Context, id string) error {
	p, err := e.payments.GetPayment(ctx, core.CleanString(id))
	if err != nil {
		return err
	}
	if p.Amount != 0 {
		return ErrPaymentRecorded
	}
	if err := e.payments.DeletePayment(ctx, p.ID); err != nil {
		return err
	}
	e.logger.Info("deleted zero-amount payment", map[string]interface{}{
		"payment_id": p.ID,
		"student_id": p.StudentID,
	})
	return nil
}
