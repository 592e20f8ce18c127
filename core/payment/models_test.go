package payment

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestPayment_JSON(t *testing.T) {
	p := Payment{
		ID:            "p1",
		StudentID:     "s1",
		Amount:        5000,
		Type:          Tuition(2),
		Date:          "2025-10-01",
		ReceiptNumber: "REC-1",
		Mode:          ModeMobile,
		Allocations:   []Allocation{{InstallmentOrdinal: 2, Amount: 5000}},
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "scolarite", doc["type"])
	assert.Equal(t, float64(2), doc["installment_ordinal"])
	assert.Equal(t, "mobile", doc["mode"])
	assert.Nil(t, doc["surplus"])
	assert.Contains(t, doc, "allocations")

	var back Payment
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, p, back)
}

func TestPayment_JSON_optionalFields(t *testing.T) {
	surplus := Payment{StudentID: "s1", Amount: 80000, Type: Tuition(0), Surplus: 80000}
	raw, err := json.Marshal(surplus)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Nil(t, doc["installment_ordinal"])
	assert.Nil(t, doc["mode"])
	assert.Equal(t, float64(80000), doc["surplus"])
	assert.NotContains(t, doc, "allocations")

	// registration payments carry no ordinal tag
	raw, err = json.Marshal(Payment{Type: Registration(), Amount: 35000})
	require.NoError(t, err)
	doc = nil
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "inscription", doc["type"])
	assert.Nil(t, doc["installment_ordinal"])

	// untagged legacy records are tuition
	var legacy Payment
	require.NoError(t, json.Unmarshal([]byte(`{"student_id":"s1","amount":1000,"installment_ordinal":3}`), &legacy))
	assert.Equal(t, Tuition(3), legacy.Type)
}

func TestRequest_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name      string
		req       Request
		wantField string
		wantErr   error
	}{
		{name: "valid", req: Request{StudentID: " s1 ", Amount: 1000, Date: "2025-10-01", Mode: " Cash "}},
		{name: "valid label", req: Request{StudentID: "s1", Amount: 1000, Label: "Cantine"}},
		{name: "no student", req: Request{Amount: 1000}, wantField: "student_id"},
		{name: "bad date", req: Request{StudentID: "s1", Amount: 1000, Date: "01/10/2025"}, wantField: "date"},
		{name: "bad mode", req: Request{StudentID: "s1", Amount: 1000, Mode: "bitcoin"}, wantField: "mode"},
		{name: "negative ordinal", req: Request{StudentID: "s1", Amount: 1000, Ordinal: -1}, wantField: "installment_ordinal"},
		{name: "zero amount", req: Request{StudentID: "s1"}, wantField: "amount", wantErr: ErrInvalidAmount},
		{name: "label and ordinal", req: Request{StudentID: "s1", Amount: 1000, Label: "cantine", Ordinal: 2}, wantField: "label"},
		{name: "reserved label", req: Request{StudentID: "s1", Amount: 1000, Label: "Inscription"}, wantField: "label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(validate)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var fields []string
			switch e := err.(type) {
			case validator.ValidationErrors:
				for _, fe := range e {
					fields = append(fields, fe.Field())
				}
			case *core.ValidationError:
				for _, fe := range e.Fields {
					fields = append(fields, fe.Field)
				}
				if tt.wantErr != nil {
					assert.Equal(t, tt.wantErr, errors.Cause(e.Err))
				}
			default:
				t.Fatalf("unexpected error type %T", err)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestRequest_Validate_cleans(t *testing.T) {
	req := Request{StudentID: " s1 ", Amount: 1000, Mode: " Cash ", Label: " Transport ", Note: " reçu manuel "}
	require.NoError(t, req.Validate(newValidator()))

	assert.Equal(t, "s1", req.StudentID)
	assert.Equal(t, ModeCash, req.Mode)
	assert.Equal(t, "transport", req.Label)
	assert.Equal(t, "reçu manuel", req.Note)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "35000", want: 35000},
		{in: " 35 000 ", want: 35000},
		{in: "1_000_000", want: 1000000},
		{in: "0", wantErr: true},
		{in: "-500", wantErr: true},
		{in: "12.5", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				assert.Equal(t, ErrInvalidAmount, errors.Cause(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
