package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Collections
const (
	CollectionStudents     = "students"
	CollectionClasses      = "classes"
	CollectionFeeSchedules = "fee-schedules"
	CollectionPayments     = "payments"
	CollectionSettings     = "settings"
	CollectionStaff        = "staff"
)

// AllCollections lists every collection known to the application, in backup order.
var AllCollections = []string{
	CollectionSettings,
	CollectionStaff,
	CollectionClasses,
	CollectionStudents,
	CollectionFeeSchedules,
	CollectionPayments,
}

var ErrRecordNotFound = errors.New("record not found")

type (
	// Record is a JSON document stored in a named collection.
	Record struct {
		ID        string          `json:"id"`
		Data      json.RawMessage `json:"data"`
		CreatedAt time.Time       `json:"created_at"` // UTC
		UpdatedAt time.Time       `json:"updated_at"` // UTC
	}

	// Store is a generic record store over named collections.
	// Calls are independent: no atomicity is assumed across several of them.
	Store interface {
		// GetAll returns every record of the collection, oldest first.
		GetAll(ctx context.Context, collection string) ([]Record, error)
		// GetByID returns ErrRecordNotFound if there is no such record.
		GetByID(ctx context.Context, collection, id string) (Record, error)
		// Create stores data (any JSON-marshalable value) under a generated ID.
		Create(ctx context.Context, collection string, data interface{}) (Record, error)
		// Update merges the top-level fields of partial into the stored document.
		// It returns ErrRecordNotFound if there is no such record.
		Update(ctx context.Context, collection, id string, partial interface{}) (Record, error)
		// Delete reports whether a record was removed.
		Delete(ctx context.Context, collection, id string) (bool, error)
	}

	// Transactor is implemented by stores able to apply several writes atomically.
	// fn must only use the Store it is given.
	Transactor interface {
		WithTx(ctx context.Context, fn func(tx Store) error) error
	}

	// Restorer is implemented by stores that accept records with known IDs (backups) and full resets.
	Restorer interface {
		Store
		Put(ctx context.Context, collection string, rec Record) error
		Reset(ctx context.Context, collection string) error
	}
)

// Decode unmarshals the record document into v.
func (r Record) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return errors.Wrapf(err, "decoding record %s", r.ID)
	}
	return nil
}

// RunInTx runs fn inside a store transaction when the store supports them, or directly otherwise.
func RunInTx(ctx context.Context, store Store, fn func(tx Store) error) error {
	if txr, ok := store.(Transactor); ok {
		return txr.WithTx(ctx, fn)
	}
	return fn(store)
}

// EncodeDocument marshals data into a JSON object, dropping the keys managed by the store.
func EncodeDocument(data interface{}) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err = json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "document must be a JSON object")
	}
	for _, key := range []string{"id", "created_at", "updated_at"} {
		delete(doc, key)
	}
	return json.Marshal(doc)
}

// MergeDocument applies the top-level keys of partial over orig.
func MergeDocument(orig json.RawMessage, partial interface{}) (json.RawMessage, error) {
	patch, err := EncodeDocument(partial)
	if err != nil {
		return nil, err
	}
	doc := make(map[string]json.RawMessage)
	if len(orig) > 0 {
		if err = json.Unmarshal(orig, &doc); err != nil {
			return nil, errors.Wrap(err, "decoding stored document")
		}
	}
	var changes map[string]json.RawMessage
	if err = json.Unmarshal(patch, &changes); err != nil {
		return nil, err
	}
	for k, v := range changes {
		doc[k] = v
	}
	return json.Marshal(doc)
}

// WithMeta returns the record document with its id and timestamps set, ready to be decoded into a model.
func (r Record) WithMeta() (json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &doc); err != nil {
			return nil, errors.Wrapf(err, "decoding record %s", r.ID)
		}
	}
	meta := map[string]interface{}{"id": r.ID, "created_at": r.CreatedAt, "updated_at": r.UpdatedAt}
	for k, v := range meta {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		doc[k] = raw
	}
	return json.Marshal(doc)
}

// DecodeWithMeta decodes the document and its id and timestamps into v.
func (r Record) DecodeWithMeta(v interface{}) error {
	raw, err := r.WithMeta()
	if err != nil {
		return err
	}
	if err = json.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "decoding record %s", r.ID)
	}
	return nil
}
