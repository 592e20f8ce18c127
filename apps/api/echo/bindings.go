package echoapi

import (
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ecolage/core/payment"
)

var orderingParam = "ordering"

type OrderingField struct {
	Field     string
	Ascending bool
}

// Ordering is bound from `?ordering=-date,amount`; a leading "-" sorts descending.
type Ordering struct {
	Orderings []OrderingField
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, OrderingField{Field: field, Ascending: !descending})
	}
}

// paymentLess compares payments on one field; unknown fields compare equal.
func paymentLess(field string, a, b payment.Payment) (less, equal bool) {
	switch field {
	case "date":
		return a.Date < b.Date, a.Date == b.Date
	case "amount":
		return a.Amount < b.Amount, a.Amount == b.Amount
	case "created_at":
		return a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
	case "receipt_number":
		return a.ReceiptNumber < b.ReceiptNumber, a.ReceiptNumber == b.ReceiptNumber
	}
	return false, true
}

// SortPayments sorts payments in place; without orderings they keep their recording order.
func (ord Ordering) SortPayments(payments []payment.Payment) {
	if len(ord.Orderings) == 0 {
		return
	}
	sort.SliceStable(payments, func(i, j int) bool {
		for _, o := range ord.Orderings {
			less, equal := paymentLess(o.Field, payments[i], payments[j])
			if equal {
				continue
			}
			return less == o.Ascending
		}
		return false
	})
}
