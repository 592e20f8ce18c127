package setting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
	dummydb "github.com/trezcool/ecolage/storage/database/dummy"
)

func TestRepository_ActiveSchoolYear(t *testing.T) {
	ctx := context.Background()
	db, _ := dummydb.Open()
	repo := NewRepository(db, &core.Config{School: core.SchoolConfig{ActiveYear: "2024-2025"}})

	year, err := repo.ActiveSchoolYear(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-2025", year, "configured default")

	require.NoError(t, repo.SetActiveSchoolYear(ctx, " 2025-2026 "))
	year, err = repo.ActiveSchoolYear(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-2026", year)

	require.NoError(t, repo.SetActiveSchoolYear(ctx, "2026-2027"))
	year, err = repo.ActiveSchoolYear(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-2027", year)

	recs, err := db.GetAll(ctx, core.CollectionSettings)
	require.NoError(t, err)
	assert.Len(t, recs, 1, "updated in place")

	for _, bad := range []string{"", "2025", "2025-2027", "25-26"} {
		err = repo.SetActiveSchoolYear(ctx, bad)
		_, ok := err.(*core.ValidationError)
		assert.True(t, ok, "%q: %v", bad, err)
	}
}

func TestRepository_Get_noDefault(t *testing.T) {
	db, _ := dummydb.Open()
	repo := NewRepository(db, nil)

	v, err := repo.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, v)
}
