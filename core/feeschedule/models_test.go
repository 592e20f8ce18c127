package feeschedule

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
)

func TestSchedule(t *testing.T) {
	s := Schedule{Installments: []Installment{
		{Ordinal: 3, Amount: 10000},
		{Ordinal: 1, Amount: 35000},
		{Ordinal: 2, Label: "Deuxième tranche", Amount: 15000},
	}}

	ordered := s.Ordered()
	assert.Equal(t, []int{1, 2, 3}, []int{ordered[0].Ordinal, ordered[1].Ordinal, ordered[2].Ordinal})
	assert.Equal(t, 3, s.Installments[0].Ordinal, "Ordered works on a copy")
	assert.Equal(t, int64(60000), s.Total())

	inst, ok := s.Installment(2)
	assert.True(t, ok)
	assert.Equal(t, "Deuxième tranche", inst.Name())
	_, ok = s.Installment(4)
	assert.False(t, ok)

	assert.Equal(t, "Inscription", ordered[0].Name())
	assert.Equal(t, "Tranche 3", ordered[2].Name())
}

func TestSchedule_Total_ignoresStoredTotal(t *testing.T) {
	var s Schedule
	require.NoError(t, core.Record{
		ID:   "s1",
		Data: []byte(`{"level":"6eme","school_year":"2025-2026","total":999999,"installments":[{"ordinal":1,"amount":35000},{"ordinal":2,"amount":15000}]}`),
	}.DecodeWithMeta(&s))

	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, int64(50000), s.Total())
}

func TestNewSchedule_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	inst := func(ord int, amount int64) Installment { return Installment{Ordinal: ord, Amount: amount} }

	tests := []struct {
		name    string
		ns      NewSchedule
		wantErr bool
	}{
		{name: "valid", ns: NewSchedule{Level: " 6eme ", SchoolYear: "2025-2026", Installments: []Installment{inst(2, 15000), inst(1, 35000)}}},
		{name: "free installment", ns: NewSchedule{Level: "6eme", SchoolYear: "2025-2026", Installments: []Installment{inst(1, 0)}}},
		{name: "no level", ns: NewSchedule{Level: "  ", SchoolYear: "2025-2026", Installments: []Installment{inst(1, 1)}}, wantErr: true},
		{name: "bad year", ns: NewSchedule{Level: "6eme", SchoolYear: "2025/2026", Installments: []Installment{inst(1, 1)}}, wantErr: true},
		{name: "no installments", ns: NewSchedule{Level: "6eme", SchoolYear: "2025-2026"}, wantErr: true},
		{name: "zero ordinal", ns: NewSchedule{Level: "6eme", SchoolYear: "2025-2026", Installments: []Installment{inst(0, 1)}}, wantErr: true},
		{name: "negative amount", ns: NewSchedule{Level: "6eme", SchoolYear: "2025-2026", Installments: []Installment{inst(1, -1)}}, wantErr: true},
		{name: "duplicate ordinal", ns: NewSchedule{Level: "6eme", SchoolYear: "2025-2026", Installments: []Installment{inst(1, 1), inst(1, 2)}}, wantErr: true},
		{
			name: "bad due date",
			ns: NewSchedule{Level: "6eme", SchoolYear: "2025-2026", Installments: []Installment{
				{Ordinal: 1, DueDate: "15/09/2025", Amount: 1},
			}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ns.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			s := tt.ns.Schedule()
			assert.Equal(t, "6eme", s.Level)
			assert.Equal(t, 1, s.Installments[0].Ordinal)
		})
	}
}
