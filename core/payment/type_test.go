package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType(t *testing.T) {
	tests := []struct {
		name       string
		typ        Type
		wantKind   Kind
		wantTag    string
		wantOrd    int
		wantSettle int // 0: none
		unassigned bool
	}{
		{name: "zero value", typ: Type{}, wantKind: KindTuition, wantTag: TagTuition, unassigned: true},
		{name: "registration", typ: Registration(), wantKind: KindRegistration, wantTag: TagRegistration, wantSettle: 1},
		{name: "tuition 1", typ: Tuition(1), wantKind: KindTuition, wantTag: TagTuition, wantOrd: 1, wantSettle: 1},
		{name: "tuition 3", typ: Tuition(3), wantKind: KindTuition, wantTag: TagTuition, wantOrd: 3, wantSettle: 3},
		{name: "negative tuition", typ: Tuition(-2), wantKind: KindTuition, wantTag: TagTuition, unassigned: true},
		{name: "other", typ: Other(" Cantine "), wantKind: KindOther, wantTag: "cantine"},
		{name: "other reserved", typ: Other("Scolarite"), wantKind: KindOther, wantTag: TagOther},
		{name: "other blank", typ: Other("  "), wantKind: KindOther, wantTag: TagOther},
		{name: "for installment 1", typ: ForInstallment(1), wantKind: KindRegistration, wantTag: TagRegistration, wantSettle: 1},
		{name: "for installment 2", typ: ForInstallment(2), wantKind: KindTuition, wantTag: TagTuition, wantOrd: 2, wantSettle: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, tt.typ.Kind())
			assert.Equal(t, tt.wantTag, tt.typ.Tag())

			ord, ok := tt.typ.Ordinal()
			assert.Equal(t, tt.wantOrd, ord)
			assert.Equal(t, tt.wantOrd > 0, ok)

			settles, ok := tt.typ.Settles()
			assert.Equal(t, tt.wantSettle, settles)
			assert.Equal(t, tt.wantSettle > 0, ok)

			assert.Equal(t, tt.unassigned, tt.typ.IsUnassigned())
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		tag     string
		ordinal int
		want    Type
	}{
		{tag: "inscription", want: Registration()},
		{tag: "INSCRIPTION", ordinal: 4, want: Registration()},
		{tag: "scolarite", ordinal: 2, want: Tuition(2)},
		{tag: "scolarite", want: Tuition(0)},
		{tag: "", ordinal: 3, want: Tuition(3)},
		{tag: "transport", ordinal: 2, want: Other("transport")},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got := ParseType(tt.tag, tt.ordinal)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ParseType(got.Tag(), tt.ordinal))
		})
	}
}

func TestOther_roundTrip(t *testing.T) {
	for _, label := range []string{"cantine", "inscription", " Scolarite ", ""} {
		typ := Other(label)
		assert.False(t, IsReservedLabel(typ.Tag()), label)
		assert.Equal(t, KindOther, ParseType(typ.Tag(), 2).Kind(), label)
		assert.Equal(t, typ, ParseType(typ.Tag(), 0), label)
	}
	assert.True(t, IsReservedLabel(" Inscription"))
	assert.False(t, IsReservedLabel("autre"))
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "inscription", Registration().String())
	assert.Equal(t, "scolarite#2", Tuition(2).String())
	assert.Equal(t, "scolarite", Tuition(0).String())
	assert.Equal(t, "cantine", Other("cantine").String())
}
