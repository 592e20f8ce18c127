package payment

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/feeschedule"
)

// ScheduleResolver finds the fee schedule of a student; see feeschedule.Resolver.
type ScheduleResolver interface {
	Resolve(ctx context.Context, studentID string) (feeschedule.Schedule, bool, error)
}

var _ ScheduleResolver = (*feeschedule.Resolver)(nil)

type (
	// InstallmentStatus is the settlement of one installment.
	InstallmentStatus struct {
		Ordinal   int    `json:"ordinal"`
		Name      string `json:"name"`
		DueDate   string `json:"due_date,omitempty"`
		Expected  int64  `json:"expected"`
		Paid      int64  `json:"paid"`
		Remaining int64  `json:"remaining"`
	}

	// Statement summarizes the payments of a student against their fee schedule.
	Statement struct {
		StudentID    string              `json:"student_id"`
		Level        string              `json:"level,omitempty"`
		SchoolYear   string              `json:"school_year,omitempty"`
		HasSchedule  bool                `json:"has_schedule"`
		Installments []InstallmentStatus `json:"installments"`
		// Unassigned is the tuition paid without being tied to an installment (credit, avance).
		Unassigned    int64     `json:"unassigned"`
		Other         int64     `json:"other"`
		TotalPaid     int64     `json:"total_paid"`
		TotalExpected int64     `json:"total_expected"`
		Balance       int64     `json:"balance"` // sum of the remaining amounts
		Payments      []Payment `json:"payments"`
	}
)

// Settlement answers "how much was paid" queries.
// Every query rescans the payment history of the student; nothing is cached.
type Settlement struct {
	payments Repository
	resolver ScheduleResolver
}

func NewSettlement(payments Repository, resolver ScheduleResolver) *Settlement {
	vala.BeginValidation().Validate(
		vala.IsNotNil(payments, "payments"),
		vala.IsNotNil(resolver, "resolver"),
	).CheckAndPanic()
	return &Settlement{payments: payments, resolver: resolver}
}

// AmountPaid is the total paid by the student, restricted to the given type tags if any.
func (s *Settlement) AmountPaid(ctx context.Context, studentID string, tags ...string) (int64, error) {
	history, err := s.payments.QueryStudentPayments(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return SumPaid(history, tags...), nil
}

// AmountPaidForInstallment is the raw (unclamped) amount paid toward an installment.
func (s *Settlement) AmountPaidForInstallment(ctx context.Context, studentID string, ordinal int) (int64, error) {
	history, err := s.payments.QueryStudentPayments(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return SumPaidForInstallment(history, ordinal), nil
}

// Remaining is what is still due on an installment of the student's schedule, never negative.
func (s *Settlement) Remaining(ctx context.Context, studentID string, ordinal int) (int64, error) {
	sched, found, err := s.resolver.Resolve(ctx, studentID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrNoSchedule
	}
	inst, ok := sched.Installment(ordinal)
	if !ok {
		return 0, errors.Wrapf(feeschedule.ErrInstallmentNotFound, "ordinal %d", ordinal)
	}

	history, err := s.payments.QueryStudentPayments(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return RemainingOf(inst, history), nil
}

// Statement returns the settlement of every installment of the student's schedule.
// Students without a schedule get a statement with no installments.
func (s *Settlement) Statement(ctx context.Context, studentID string) (Statement, error) {
	sched, found, err := s.resolver.Resolve(ctx, studentID)
	if err != nil {
		return Statement{}, err
	}
	history, err := s.payments.QueryStudentPayments(ctx, studentID)
	if err != nil {
		return Statement{}, err
	}

	st := Statement{
		StudentID:    studentID,
		HasSchedule:  found,
		Installments: make([]InstallmentStatus, 0),
		TotalPaid:    SumPaid(history),
		Payments:     history,
	}
	for _, p := range history {
		switch {
		case p.Type.Kind() == KindOther:
			st.Other += p.Amount
		case p.Type.IsUnassigned():
			st.Unassigned += p.Amount
		}
	}
	if !found {
		return st, nil
	}

	st.Level = sched.Level
	st.SchoolYear = sched.SchoolYear
	st.TotalExpected = sched.Total()
	for _, inst := range sched.Ordered() {
		paid := SumPaidForInstallment(history, inst.Ordinal)
		status := InstallmentStatus{
			Ordinal:   inst.Ordinal,
			Name:      inst.Name(),
			DueDate:   inst.DueDate,
			Expected:  inst.Amount,
			Paid:      paid,
			Remaining: core.Max64(0, inst.Amount-paid),
		}
		st.Balance += status.Remaining
		st.Installments = append(st.Installments, status)
	}
	return st, nil
}

// SumPaid sums the amounts of history, restricted to the given type tags if any.
func SumPaid(history []Payment, tags ...string) int64 {
	var total int64
	for _, p := range history {
		if len(tags) == 0 || hasTag(p, tags) {
			total += p.Amount
		}
	}
	return total
}

func hasTag(p Payment, tags []string) bool {
	tag := p.Type.Tag()
	for _, t := range tags {
		if core.CleanString(t, true /* lower */) == tag {
			return true
		}
	}
	return false
}

// SumPaidForInstallment sums the payments of history settling installment ordinal.
// Registration payments and Tuition payments tagged 1 both settle installment 1;
// unassigned payments settle none.
func SumPaidForInstallment(history []Payment, ordinal int) int64 {
	var total int64
	for _, p := range history {
		if settled, ok := p.Type.Settles(); ok && settled == ordinal {
			total += p.Amount
		}
	}
	return total
}

// RemainingOf is max(0, expected - paid) for inst.
func RemainingOf(inst feeschedule.Installment, history []Payment) int64 {
	return core.Max64(0, inst.Amount-SumPaidForInstallment(history, inst.Ordinal))
}

// Plan splits amount across installments by ascending ordinal, saturating each one before the next.
// Due dates play no part. What no installment absorbs is returned as surplus.
func Plan(installments []feeschedule.Installment, history []Payment, amount int64) (allocs []Allocation, surplus int64) {
	allocs = make([]Allocation, 0)
	left := amount
	for _, inst := range (feeschedule.Schedule{Installments: installments}).Ordered() {
		if left <= 0 {
			break
		}
		due := RemainingOf(inst, history)
		if due == 0 {
			continue
		}
		take := core.Min64(left, due)
		allocs = append(allocs, Allocation{InstallmentOrdinal: inst.Ordinal, Amount: take})
		left -= take
	}
	return allocs, core.Max64(0, left)
}
