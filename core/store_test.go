package core

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDocument(t *testing.T) {
	doc, err := EncodeDocument(map[string]interface{}{
		"id":         "x",
		"created_at": time.Now(),
		"updated_at": time.Now(),
		"name":       "6eme A",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"6eme A"}`, string(doc))

	_, err = EncodeDocument([]int{1, 2})
	assert.Error(t, err, "documents must be objects")
}

func TestMergeDocument(t *testing.T) {
	doc, err := MergeDocument(json.RawMessage(`{"name":"6eme A","level":"6eme"}`), map[string]interface{}{
		"id":    "ignored",
		"level": "5eme",
		"room":  12,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"6eme A","level":"5eme","room":12}`, string(doc))

	doc, err = MergeDocument(nil, map[string]string{"name": "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x"}`, string(doc))
}

func TestRecord_DecodeWithMeta(t *testing.T) {
	created := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	rec := Record{
		ID:        "r1",
		Data:      json.RawMessage(`{"name":"6eme A","id":"stale"}`),
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}

	var v struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	require.NoError(t, rec.DecodeWithMeta(&v))
	assert.Equal(t, "r1", v.ID)
	assert.Equal(t, "6eme A", v.Name)
	assert.True(t, created.Equal(v.CreatedAt))
	assert.True(t, created.Add(time.Hour).Equal(v.UpdatedAt))

	assert.Error(t, Record{ID: "bad", Data: json.RawMessage(`[`)}.DecodeWithMeta(&v))
}

type plainStore struct{ Store }

type txStore struct {
	Store
	calls int
}

func (s *txStore) WithTx(_ context.Context, fn func(tx Store) error) error {
	s.calls++
	return fn(s)
}

func TestRunInTx(t *testing.T) {
	ctx := context.Background()

	var got Store
	plain := plainStore{}
	require.NoError(t, RunInTx(ctx, plain, func(tx Store) error { got = tx; return nil }))
	assert.Equal(t, plain, got)

	txs := &txStore{}
	errBoom := errors.New("boom")
	err := RunInTx(ctx, txs, func(tx Store) error { return errBoom })
	assert.Equal(t, errBoom, err)
	assert.Equal(t, 1, txs.calls)
}

func TestErrors(t *testing.T) {
	err := errors.Wrap(NewStoreError("create", CollectionPayments, errors.New("disk full")), "recording")
	assert.True(t, IsStoreError(err))
	assert.Equal(t, "recording: store create payments: disk full", err.Error())
	assert.False(t, IsStoreError(errors.New("other")))

	verr := NewValidationError(nil, FieldError{Field: "amount", Error: "must be positive"})
	assert.Equal(t, "amount: must be positive", verr.Error())

	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("bye"), "serving")))
}

func TestIsSchoolYear(t *testing.T) {
	tests := map[string]bool{
		"2025-2026": true,
		"1999-2000": true,
		"2025-2027": false,
		"2026-2025": false,
		"2025/2026": false,
		"25-26":     false,
		"":          false,
	}
	for year, want := range tests {
		t.Run(year, func(t *testing.T) {
			assert.Equal(t, want, IsSchoolYear(year))
		})
	}
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, int64(3), Max64(3, -1))
	assert.Equal(t, int64(-1), Min64(3, -1))
	assert.Equal(t, "2025-09-01", FormatDate(time.Date(2025, 9, 1, 23, 0, 0, 0, time.UTC)))
}
