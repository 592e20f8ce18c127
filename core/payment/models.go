package payment

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ecolage/core"
)

// Mode is how the money was received; informational only.
type Mode string

const (
	ModeCash     Mode = "cash"
	ModeMobile   Mode = "mobile"
	ModeCheque   Mode = "cheque"
	ModeTransfer Mode = "transfer"
)

var Modes = []Mode{ModeCash, ModeMobile, ModeCheque, ModeTransfer}

func (m Mode) IsValid() bool {
	for _, mode := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Allocation is the part of a payment applied to one installment.
type Allocation struct {
	InstallmentOrdinal int   `json:"installment_ordinal"`
	Amount             int64 `json:"amount"`
}

// Payment is an append-only ledger entry.
type Payment struct {
	ID            string
	StudentID     string
	Amount        int64 // whole Francs
	Type          Type
	Date          string // YYYY-MM-DD
	ReceiptNumber string
	Mode          Mode
	Allocations   []Allocation
	Surplus       int64 // avance: the part no installment was left to absorb
	Note          string
	CreatedAt     time.Time // UTC
	UpdatedAt     time.Time // UTC
}

// Allocated is the sum of the payment's allocations.
func (p Payment) Allocated() int64 {
	var total int64
	for _, a := range p.Allocations {
		total += a.Amount
	}
	return total
}

// record is the stored (and served) shape of a Payment.
type record struct {
	ID                 string       `json:"id"`
	StudentID          string       `json:"student_id"`
	Amount             int64        `json:"amount"`
	Type               string       `json:"type"`
	InstallmentOrdinal null.Int     `json:"installment_ordinal"`
	Date               string       `json:"date"`
	ReceiptNumber      string       `json:"receipt_number"`
	Mode               null.String  `json:"mode"`
	Allocations        []Allocation `json:"allocations,omitempty"`
	Surplus            null.Int64   `json:"surplus"`
	Note               string       `json:"note,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

func boil(p Payment) record {
	ord, hasOrd := p.Type.Ordinal()
	return record{
		ID:                 p.ID,
		StudentID:          p.StudentID,
		Amount:             p.Amount,
		Type:               p.Type.Tag(),
		InstallmentOrdinal: null.NewInt(ord, hasOrd),
		Date:               p.Date,
		ReceiptNumber:      p.ReceiptNumber,
		Mode:               null.NewString(string(p.Mode), p.Mode != ""),
		Allocations:        p.Allocations,
		Surplus:            null.NewInt64(p.Surplus, p.Surplus > 0),
		Note:               p.Note,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func unboil(r record) Payment {
	return Payment{
		ID:            r.ID,
		StudentID:     r.StudentID,
		Amount:        r.Amount,
		Type:          ParseType(r.Type, r.InstallmentOrdinal.Int),
		Date:          r.Date,
		ReceiptNumber: r.ReceiptNumber,
		Mode:          Mode(r.Mode.String),
		Allocations:   r.Allocations,
		Surplus:       r.Surplus.Int64,
		Note:          r.Note,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (p Payment) MarshalJSON() ([]byte, error) {
	return json.Marshal(boil(p))
}

func (p *Payment) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*p = unboil(r)
	return nil
}

// Request describes a payment received at the front desk.
type Request struct {
	StudentID string `json:"student_id" validate:"required"`
	Amount    int64  `json:"amount"` // checked by Engine.Allocate
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Mode      Mode   `json:"mode" validate:"omitempty,paymentmode"`
	// Ordinal forces the whole amount onto one installment; 0 lets the engine allocate.
	Ordinal int `json:"installment_ordinal" validate:"min=0"`
	// Label records a payment outside the fee schedule (cantine, transport...).
	Label string `json:"label" validate:"omitempty,notblank"`
	Note  string `json:"note"`
}

func (req *Request) Validate(validate *validator.Validate) error {
	req.StudentID = core.CleanString(req.StudentID)
	req.Date = core.CleanString(req.Date)
	req.Mode = Mode(core.CleanString(string(req.Mode), true /* lower */))
	req.Label = core.CleanString(req.Label, true /* lower */)
	req.Note = core.CleanString(req.Note)

	if err := validate.Struct(req); err != nil {
		return err
	}
	if req.Amount <= 0 {
		return core.NewValidationError(ErrInvalidAmount, core.FieldError{Field: "amount", Error: ErrInvalidAmount.Error()})
	}
	if req.Label != "" {
		if req.Ordinal > 0 {
			return core.NewValidationError(nil, core.FieldError{Field: "label", Error: "label and installment_ordinal are mutually exclusive"})
		}
		if IsReservedLabel(req.Label) {
			return core.NewValidationError(nil, core.FieldError{Field: "label", Error: "reserved payment type"})
		}
	}
	return nil
}

// ParseAmount parses a whole Francs amount typed by an operator, eg: "35000" or "35 000".
func ParseAmount(s string) (int64, error) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "_", "").Replace(strings.TrimSpace(s))
	amount, err := strconv.ParseInt(s, 10, 64)
	if err != nil || amount <= 0 {
		return 0, errors.Wrapf(ErrInvalidAmount, "%q", s)
	}
	return amount, nil
}

// Result is the outcome of Engine.Allocate.
type Result struct {
	Payments    []Payment    `json:"payments"`
	Allocations []Allocation `json:"allocations"`
	Surplus     int64        `json:"surplus"`
}

// Allocated is the sum of the allocations.
func (res Result) Allocated() int64 {
	var total int64
	for _, a := range res.Allocations {
		total += a.Amount
	}
	return total
}
