package sqlxdb_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/payment"
	"github.com/trezcool/ecolage/storage/database"
	sqlxdb "github.com/trezcool/ecolage/storage/database/sqlx"
	testutil "github.com/trezcool/ecolage/tests"
)

func newStore(t *testing.T) *sqlxdb.Store {
	t.Helper()
	conf := testutil.NewConfig()
	conf.Database.Engine = core.EngineSQLite
	conf.Database.Path = ":memory:"

	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db.DB, conf.Database.Engine))
	return sqlxdb.NewStore(db)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	recs, err := store.GetAll(ctx, core.CollectionClasses)
	require.NoError(t, err)
	assert.Empty(t, recs)

	first, err := store.Create(ctx, core.CollectionClasses, map[string]string{"name": "6eme A"})
	require.NoError(t, err)
	second, err := store.Create(ctx, core.CollectionClasses, map[string]string{"name": "5eme A"})
	require.NoError(t, err)
	_, err = store.Create(ctx, core.CollectionStudents, map[string]string{"first_name": "Amani"})
	require.NoError(t, err)

	recs, err = store.GetAll(ctx, core.CollectionClasses)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	ids := []string{recs[0].ID, recs[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)

	got, err := store.GetByID(ctx, core.CollectionClasses, first.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"6eme A"}`, string(got.Data))
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	updated, err := store.Update(ctx, core.CollectionClasses, first.ID, map[string]string{"level": "6eme"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"6eme A","level":"6eme"}`, string(updated.Data))

	_, err = store.GetByID(ctx, core.CollectionClasses, "missing")
	assert.Equal(t, core.ErrRecordNotFound, err)
	_, err = store.Update(ctx, core.CollectionClasses, "missing", map[string]string{})
	assert.Equal(t, core.ErrRecordNotFound, err)

	ok, err := store.Delete(ctx, core.CollectionClasses, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Delete(ctx, core.CollectionClasses, first.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PutReset(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	rec, err := store.Create(ctx, core.CollectionSettings, map[string]string{"key": "a"})
	require.NoError(t, err)
	rec.Data = []byte(`{"key":"b"}`)
	require.NoError(t, store.Put(ctx, core.CollectionSettings, rec))
	require.NoError(t, store.Put(ctx, core.CollectionSettings, core.Record{ID: "fixed", Data: []byte(`{}`), CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt}))

	recs, err := store.GetAll(ctx, core.CollectionSettings)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	got, err := store.GetByID(ctx, core.CollectionSettings, rec.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"b"}`, string(got.Data))

	require.NoError(t, store.Reset(ctx, core.CollectionSettings))
	recs, err = store.GetAll(ctx, core.CollectionSettings)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStore_WithTx(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	errBoom := errors.New("boom")
	err := store.WithTx(ctx, func(tx core.Store) error {
		if _, err := tx.Create(ctx, core.CollectionPayments, map[string]int{"amount": 1}); err != nil {
			return err
		}
		return core.RunInTx(ctx, tx, func(tx core.Store) error { return errBoom }) // nested: joins
	})
	assert.Equal(t, errBoom, err)
	recs, err := store.GetAll(ctx, core.CollectionPayments)
	require.NoError(t, err)
	assert.Empty(t, recs, "rolled back")

	require.NoError(t, store.WithTx(ctx, func(tx core.Store) error {
		_, err := tx.Create(ctx, core.CollectionPayments, map[string]int{"amount": 2})
		return err
	}))
	recs, err = store.GetAll(ctx, core.CollectionPayments)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestEngine_sqlite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	env := testutil.NewEnvWithStore(t, store, nil)

	cls := testutil.CreateClass(t, env.Students, "6eme A", "6eme", testutil.SchoolYear)
	std := testutil.CreateStudent(t, env.Students, "Amani", "Kabila", cls.ID)
	testutil.CreateSchedule(t, env.Schedules, "6eme", testutil.SchoolYear, 35000, 15000, 10000)

	res, err := env.Engine.Allocate(ctx, payment.Request{StudentID: std.ID, Amount: 50000})
	require.NoError(t, err)
	require.Len(t, res.Payments, 2)

	st, err := env.Settlement.Statement(ctx, std.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), st.TotalPaid)
	assert.Equal(t, int64(10000), st.Balance)
}
