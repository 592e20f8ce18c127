package feeschedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecolage/core"
)

// RegistrationOrdinal is the installment paid at registration (inscription).
const RegistrationOrdinal = 1

// Installment is one échéance of a Schedule.
// Its Ordinal is its payment priority; DueDate is informational only.
type Installment struct {
	Ordinal int    `json:"ordinal" validate:"min=1"`
	Label   string `json:"label,omitempty"`
	DueDate string `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Amount  int64  `json:"amount" validate:"min=0"` // whole Francs
}

func (inst Installment) IsRegistration() bool {
	return inst.Ordinal == RegistrationOrdinal
}

// Name is the label shown on receipts and statements.
func (inst Installment) Name() string {
	if inst.Label != "" {
		return inst.Label
	}
	if inst.IsRegistration() {
		return "Inscription"
	}
	return fmt.Sprintf("Tranche %d", inst.Ordinal)
}

// Schedule is the fee schedule of a (level, school year) pair.
type Schedule struct {
	ID           string        `json:"id"`
	Level        string        `json:"level"`
	SchoolYear   string        `json:"school_year"`
	Installments []Installment `json:"installments"`
	CreatedAt    time.Time     `json:"created_at"` // UTC
	UpdatedAt    time.Time     `json:"updated_at"` // UTC
}

// Ordered returns a copy of the installments sorted by ascending ordinal.
func (s Schedule) Ordered() []Installment {
	insts := make([]Installment, len(s.Installments))
	copy(insts, s.Installments)
	sort.SliceStable(insts, func(i, j int) bool { return insts[i].Ordinal < insts[j].Ordinal })
	return insts
}

// Installment returns the installment with the given ordinal.
func (s Schedule) Installment(ordinal int) (Installment, bool) {
	for _, inst := range s.Installments {
		if inst.Ordinal == ordinal {
			return inst, true
		}
	}
	return Installment{}, false
}

// Total is always recomputed from the installments.
func (s Schedule) Total() int64 {
	var total int64
	for _, inst := range s.Installments {
		total += inst.Amount
	}
	return total
}

func (s Schedule) Matches(level, year string) bool {
	return s.Level == level && s.SchoolYear == year
}

// NewSchedule contains the information needed to configure a fee schedule.
type NewSchedule struct {
	Level        string        `json:"level" validate:"required,notblank"`
	SchoolYear   string        `json:"school_year" validate:"required,schoolyear"`
	Installments []Installment `json:"installments" validate:"required,min=1,dive"`
}

func (ns *NewSchedule) Validate(validate *validator.Validate) error {
	ns.Level = core.CleanString(ns.Level)
	ns.SchoolYear = core.CleanString(ns.SchoolYear)
	for i := range ns.Installments {
		ns.Installments[i].Label = core.CleanString(ns.Installments[i].Label)
		ns.Installments[i].DueDate = core.CleanString(ns.Installments[i].DueDate)
	}
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return checkOrdinals(ns.Installments)
}

func (ns NewSchedule) Schedule() Schedule {
	return Schedule{
		Level:        ns.Level,
		SchoolYear:   ns.SchoolYear,
		Installments: Schedule{Installments: ns.Installments}.Ordered(),
	}
}

// checkOrdinals checks that installment ordinals are unique within the schedule.
func checkOrdinals(insts []Installment) error {
	seen := make(map[int]bool, len(insts))
	for _, inst := range insts {
		if seen[inst.Ordinal] {
			return core.NewValidationError(nil, core.FieldError{
				Field: "installments",
				Error: fmt.Sprintf("installment %d is defined more than once", inst.Ordinal),
			})
		}
		seen[inst.Ordinal] = true
	}
	return nil
}
