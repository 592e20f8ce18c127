package payment

import (
	"fmt"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/feeschedule"
)

// Kind discriminates payment types.
type Kind int

const (
	KindRegistration Kind = iota + 1
	KindTuition
	KindOther
)

// Stored type tags
const (
	TagRegistration = "inscription"
	TagTuition      = "scolarite"
)

// Type is the type of a payment: Registration, Tuition (optionally tied to an installment) or Other.
// The zero value is an unassigned Tuition payment.
type Type struct {
	kind    Kind
	ordinal int
	label   string
}

// Registration is the inscription fee; it settles installment 1.
func Registration() Type { return Type{kind: KindRegistration} }

// Tuition settles the installment with the given ordinal; 0 is not tied to any installment.
func Tuition(ordinal int) Type {
	if ordinal < 0 {
		ordinal = 0
	}
	return Type{kind: KindTuition, ordinal: ordinal}
}

// TagOther labels Other payments given a blank or reserved label.
const TagOther = "autre"

// Other is any other payment (cantine, transport...); it only counts toward totals.
// It never carries a reserved tag, so it reads back as Other.
func Other(label string) Type {
	label = core.CleanString(label, true /* lower */)
	if label == "" || IsReservedLabel(label) {
		label = TagOther
	}
	return Type{kind: KindOther, label: label}
}

// IsReservedLabel reports whether label would read back as Registration or Tuition.
func IsReservedLabel(label string) bool {
	switch core.CleanString(label, true /* lower */) {
	case TagRegistration, TagTuition:
		return true
	}
	return false
}

// ForInstallment returns the type a payment toward installment ordinal is recorded with.
func ForInstallment(ordinal int) Type {
	if ordinal == feeschedule.RegistrationOrdinal {
		return Registration()
	}
	return Tuition(ordinal)
}

// ParseType maps a stored tag and installment ordinal back to a Type.
// Untagged payments are tuition; the ordinal is ignored for any other tag than "scolarite".
func ParseType(tag string, ordinal int) Type {
	switch core.CleanString(tag, true /* lower */) {
	case TagRegistration:
		return Registration()
	case TagTuition, "":
		return Tuition(ordinal)
	default:
		return Other(tag)
	}
}

func (t Type) Kind() Kind {
	if t.kind == 0 {
		return KindTuition
	}
	return t.kind
}

// Tag is the stored type tag.
func (t Type) Tag() string {
	switch t.Kind() {
	case KindRegistration:
		return TagRegistration
	case KindOther:
		return t.label
	default:
		return TagTuition
	}
}

// Ordinal is the stored installment ordinal tag; only tuition payments carry one.
func (t Type) Ordinal() (int, bool) {
	if t.Kind() == KindTuition && t.ordinal > 0 {
		return t.ordinal, true
	}
	return 0, false
}

// Settles returns the installment the payment counts toward, if any.
func (t Type) Settles() (int, bool) {
	if t.Kind() == KindRegistration {
		return feeschedule.RegistrationOrdinal, true
	}
	return t.Ordinal()
}

func (t Type) IsUnassigned() bool {
	_, ok := t.Settles()
	return t.Kind() == KindTuition && !ok
}

func (t Type) String() string {
	if ord, ok := t.Ordinal(); ok {
		return fmt.Sprintf("%s#%d", TagTuition, ord)
	}
	return t.Tag()
}
