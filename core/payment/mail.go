package payment

import (
	"fmt"
	"net/mail"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/school"
)

const receiptTemplate = "payment_receipt"

type (
	receiptLine struct {
		Receipt string
		Label   string
		Amount  int64
	}

	receiptData struct {
		GuardianName string
		StudentName  string
		Date         string
		Total        int64
		Surplus      int64
		Lines        []receiptLine
	}
)

// Label describes what a payment settles, eg: "Tranche 2".
func (p Payment) Label() string {
	if ord, ok := p.Type.Settles(); ok {
		if ord == 1 {
			return "Inscription"
		}
		return fmt.Sprintf("Tranche %d", ord)
	}
	if p.Type.Kind() == KindOther {
		return p.Type.Tag()
	}
	if p.Surplus > 0 {
		return "Avance"
	}
	return "Scolarité"
}

// NewReceiptMessage builds the receipt email sent to the guardian of std.
// It returns nil when the student has no guardian email or nothing was recorded.
func NewReceiptMessage(std school.Student, res Result, conf *core.Config) *core.EmailMessage {
	if std.GuardianEmail == "" || len(res.Payments) == 0 {
		return nil
	}

	data := receiptData{
		GuardianName: std.GuardianName,
		StudentName:  std.FullName(),
		Date:         res.Payments[0].Date,
		Surplus:      res.Surplus,
		Lines:        make([]receiptLine, 0, len(res.Payments)),
	}
	for _, p := range res.Payments {
		data.Total += p.Amount
		data.Lines = append(data.Lines, receiptLine{Receipt: p.ReceiptNumber, Label: p.Label(), Amount: p.Amount})
	}

	return &core.EmailMessage{
		To:           []mail.Address{{Name: std.GuardianName, Address: std.GuardianEmail}},
		Subject:      "Reçu de paiement - " + std.FullName(),
		TemplateName: receiptTemplate,
		TemplateData: data,
		SchoolName:   conf.School.Name,
		Currency:     conf.School.Currency,
	}
}
