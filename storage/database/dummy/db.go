package dummydb

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ecolage/core"
)

type (
	// DB is an in-memory record store. Records keep their insertion order.
	DB struct {
		mu     sync.RWMutex
		tables map[string]*table
		now    func() time.Time
	}

	table struct {
		order []string
		rows  map[string]core.Record
	}
)

var (
	_ core.Store      = (*DB)(nil) // interface compliance check
	_ core.Transactor = (*DB)(nil)
	_ core.Restorer   = (*DB)(nil)
)

func Open() (*DB, error) {
	db := &DB{
		tables: make(map[string]*table),
		now:    func() time.Time { return time.Now().UTC() },
	}
	return db, nil
}

func (db *DB) table(collection string) *table {
	tbl, ok := db.tables[collection]
	if !ok {
		tbl = &table{rows: make(map[string]core.Record)}
		db.tables[collection] = tbl
	}
	return tbl
}

func copyRecord(rec core.Record) core.Record {
	rec.Data = append(json.RawMessage(nil), rec.Data...)
	return rec
}

func (db *DB) GetAll(_ context.Context, collection string) ([]core.Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	tbl, ok := db.tables[collection]
	if !ok {
		return []core.Record{}, nil
	}
	recs := make([]core.Record, 0, len(tbl.order))
	for _, id := range tbl.order {
		recs = append(recs, copyRecord(tbl.rows[id]))
	}
	return recs, nil
}

func (db *DB) GetByID(_ context.Context, collection, id string) (core.Record, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if tbl, ok := db.tables[collection]; ok {
		if rec, ok := tbl.rows[id]; ok {
			return copyRecord(rec), nil
		}
	}
	return core.Record{}, core.ErrRecordNotFound
}

func (db *DB) Create(_ context.Context, collection string, data interface{}) (core.Record, error) {
	doc, err := core.EncodeDocument(data)
	if err != nil {
		return core.Record{}, core.NewStoreError("create", collection, err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now()
	rec := core.Record{ID: uuid.New().String(), Data: doc, CreatedAt: now, UpdatedAt: now}
	tbl := db.table(collection)
	tbl.order = append(tbl.order, rec.ID)
	tbl.rows[rec.ID] = rec
	return copyRecord(rec), nil
}

func (db *DB) Update(_ context.Context, collection, id string, partial interface{}) (core.Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tbl := db.table(collection)
	rec, ok := tbl.rows[id]
	if !ok {
		return core.Record{}, core.ErrRecordNotFound
	}
	doc, err := core.MergeDocument(rec.Data, partial)
	if err != nil {
		return core.Record{}, core.NewStoreError("update", collection, err)
	}
	rec.Data = doc
	rec.UpdatedAt = db.now()
	tbl.rows[id] = rec
	return copyRecord(rec), nil
}

func (db *DB) Delete(_ context.Context, collection, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tbl, ok := db.tables[collection]
	if !ok {
		return false, nil
	}
	if _, ok = tbl.rows[id]; !ok {
		return false, nil
	}
	delete(tbl.rows, id)
	for i, rid := range tbl.order {
		if rid == id {
			tbl.order = append(tbl.order[:i], tbl.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Put stores rec as is, replacing any record with the same ID.
func (db *DB) Put(_ context.Context, collection string, rec core.Record) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tbl := db.table(collection)
	if _, exists := tbl.rows[rec.ID]; !exists {
		tbl.order = append(tbl.order, rec.ID)
	}
	tbl.rows[rec.ID] = copyRecord(rec)
	return nil
}

// Reset removes every record of the collection.
func (db *DB) Reset(_ context.Context, collection string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.tables, collection)
	return nil
}

// WithTx runs fn against the store and restores the state it had before fn if fn fails.
// Writes from other goroutines during fn are lost on rollback: the store has a single writer.
func (db *DB) WithTx(ctx context.Context, fn func(tx core.Store) error) error {
	snap := db.snapshot()
	if err := fn(db); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

func (db *DB) snapshot() map[string]*table {
	db.mu.RLock()
	defer db.mu.RUnlock()

	snap := make(map[string]*table, len(db.tables))
	for name, tbl := range db.tables {
		cp := &table{order: append([]string(nil), tbl.order...), rows: make(map[string]core.Record, len(tbl.rows))}
		for id, rec := range tbl.rows {
			cp.rows[id] = rec
		}
		snap[name] = cp
	}
	return snap
}

func (db *DB) restore(snap map[string]*table) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables = snap
}
