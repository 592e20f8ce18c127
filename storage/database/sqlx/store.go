package sqlxdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
)

const (
	selectRecords = `SELECT id, data, created_at, updated_at FROM records`
	insertRecord  = `INSERT INTO records (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	upsertRecord  = insertRecord + `
ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, created_at = excluded.created_at, updated_at = excluded.updated_at`
)

type row struct {
	ID        string    `db:"id"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r row) record() core.Record {
	return core.Record{ID: r.ID, Data: []byte(r.Data), CreatedAt: r.CreatedAt.UTC(), UpdatedAt: r.UpdatedAt.UTC()}
}

// Store is a record store over the "records" table of a SQL database (sqlite3 or postgres).
type Store struct {
	db  *sqlx.DB        // nil within a transaction
	ext sqlx.ExtContext // db or the running transaction
	now func() time.Time
}

var (
	_ core.Store      = (*Store)(nil) // interface compliance check
	_ core.Transactor = (*Store)(nil)
	_ core.Restorer   = (*Store)(nil)
)

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:  db,
		ext: db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]core.Record, error) {
	rows := make([]row, 0)
	q := s.ext.Rebind(selectRecords + ` WHERE collection = ? ORDER BY created_at, id`)
	if err := sqlx.SelectContext(ctx, s.ext, &rows, q, collection); err != nil {
		return nil, errors.Wrapf(err, "selecting %s", collection)
	}
	recs := make([]core.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.record())
	}
	return recs, nil
}

func (s *Store) GetByID(ctx context.Context, collection, id string) (core.Record, error) {
	var r row
	q := s.ext.Rebind(selectRecords + ` WHERE collection = ? AND id = ?`)
	if err := sqlx.GetContext(ctx, s.ext, &r, q, collection, id); err != nil {
		if err == sql.ErrNoRows {
			return core.Record{}, core.ErrRecordNotFound
		}
		return core.Record{}, errors.Wrapf(err, "selecting %s %s", collection, id)
	}
	return r.record(), nil
}

func (s *Store) Create(ctx context.Context, collection string, data interface{}) (core.Record, error) {
	doc, err := core.EncodeDocument(data)
	if err != nil {
		return core.Record{}, core.NewStoreError("create", collection, err)
	}
	now := s.now()
	rec := core.Record{ID: uuid.New().String(), Data: doc, CreatedAt: now, UpdatedAt: now}
	if _, err = s.ext.ExecContext(ctx, s.ext.Rebind(insertRecord), collection, rec.ID, string(doc), now, now); err != nil {
		return core.Record{}, core.NewStoreError("create", collection, err)
	}
	return rec, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, partial interface{}) (core.Record, error) {
	rec, err := s.GetByID(ctx, collection, id)
	if err != nil {
		return core.Record{}, err
	}
	doc, err := core.MergeDocument(rec.Data, partial)
	if err != nil {
		return core.Record{}, core.NewStoreError("update", collection, err)
	}
	rec.Data = doc
	rec.UpdatedAt = s.now()

	q := s.ext.Rebind(`UPDATE records SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`)
	res, err := s.ext.ExecContext(ctx, q, string(doc), rec.UpdatedAt, collection, id)
	if err != nil {
		return core.Record{}, core.NewStoreError("update", collection, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Record{}, core.ErrRecordNotFound
	}
	return rec, nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) (bool, error) {
	q := s.ext.Rebind(`DELETE FROM records WHERE collection = ? AND id = ?`)
	res, err := s.ext.ExecContext(ctx, q, collection, id)
	if err != nil {
		return false, core.NewStoreError("delete", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, core.NewStoreError("delete", collection, err)
	}
	return n > 0, nil
}

// Put stores rec as is, replacing any record with the same ID.
func (s *Store) Put(ctx context.Context, collection string, rec core.Record) error {
	_, err := s.ext.ExecContext(ctx, s.ext.Rebind(upsertRecord),
		collection, rec.ID, string(rec.Data), rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	if err != nil {
		return core.NewStoreError("put", collection, err)
	}
	return nil
}

// Reset removes every record of the collection.
func (s *Store) Reset(ctx context.Context, collection string) error {
	if _, err := s.ext.ExecContext(ctx, s.ext.Rebind(`DELETE FROM records WHERE collection = ?`), collection); err != nil {
		return core.NewStoreError("reset", collection, err)
	}
	return nil
}

// WithTx runs fn in a database transaction, committed if fn succeeds and rolled back otherwise.
// Nested calls join the running transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx core.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewStoreError("begin", "", err)
	}
	if err = fn(&Store{ext: tx, now: s.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return core.NewStoreError("commit", "", err)
	}
	return nil
}
