package backup_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/backup"
	"github.com/trezcool/ecolage/core/payment"
	dummydb "github.com/trezcool/ecolage/storage/database/dummy"
	testutil "github.com/trezcool/ecolage/tests"
)

func seed(t *testing.T, env *testutil.Env) {
	t.Helper()
	cls := testutil.CreateClass(t, env.Students, "6eme A", "6eme", testutil.SchoolYear)
	std := testutil.CreateStudent(t, env.Students, "Amani", "Kabila", cls.ID)
	testutil.CreateSchedule(t, env.Schedules, "6eme", testutil.SchoolYear, 35000, 15000)
	testutil.CreatePayment(t, env.Payments, std.ID, payment.Registration(), 35000)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := testutil.NewEnv(t)
	seed(t, src)

	var buf bytes.Buffer
	snap, err := backup.Export(ctx, src.Store, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Count())

	dst, _ := dummydb.Open()
	_, err = dst.Create(ctx, core.CollectionPayments, map[string]int{"amount": 1})
	require.NoError(t, err)

	imported, err := backup.Import(ctx, dst, &buf)
	require.NoError(t, err)
	assert.Equal(t, snap.Count(), imported.Count())

	for _, coll := range core.AllCollections {
		want, err := src.Store.GetAll(ctx, coll)
		require.NoError(t, err)
		got, err := dst.GetAll(ctx, coll)
		require.NoError(t, err)
		require.Len(t, got, len(want), coll)
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.JSONEq(t, string(want[i].Data), string(got[i].Data))
			assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
		}
	}
}

func TestRestore_partialSnapshot(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	seed(t, env)

	snap := backup.Snapshot{Version: 1, Collections: map[string][]core.Record{core.CollectionPayments: {}}}
	require.NoError(t, backup.Restore(ctx, env.Store, snap))

	payments, err := env.Store.GetAll(ctx, core.CollectionPayments)
	require.NoError(t, err)
	assert.Empty(t, payments)
	students, err := env.Store.GetAll(ctx, core.CollectionStudents)
	require.NoError(t, err)
	assert.Len(t, students, 1, "collections absent from the snapshot are kept")
}

func TestRead_version(t *testing.T) {
	_, err := backup.Read(strings.NewReader(`{"version":2,"collections":{}}`))
	assert.Equal(t, backup.ErrUnsupportedVersion, errors.Cause(err))

	_, err = backup.Read(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	seed(t, env)

	require.NoError(t, backup.Reset(ctx, env.Store, core.CollectionPayments))
	snap, err := backup.Take(ctx, env.Store)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Count())

	require.NoError(t, backup.Reset(ctx, env.Store))
	snap, err = backup.Take(ctx, env.Store)
	require.NoError(t, err)
	assert.Zero(t, snap.Count())
}
