package school

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
	dummydb "github.com/trezcool/ecolage/storage/database/dummy"
)

func TestRepository_Classes(t *testing.T) {
	ctx := context.Background()
	db, _ := dummydb.Open()
	repo := NewRepository(db)

	cls, err := repo.CreateClass(ctx, Class{Name: "6eme A", Level: "6eme", SchoolYear: "2025-2026"})
	require.NoError(t, err)
	assert.NotEmpty(t, cls.ID)

	cls.Name = "6eme B"
	updated, err := repo.UpdateClass(ctx, cls)
	require.NoError(t, err)
	assert.Equal(t, "6eme B", updated.Name)

	got, err := repo.GetClass(ctx, cls.ID)
	require.NoError(t, err)
	assert.Equal(t, "6eme B", got.Name)

	all, err := repo.QueryAllClasses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.DeleteClass(ctx, cls.ID))
	assert.Equal(t, ErrClassNotFound, repo.DeleteClass(ctx, cls.ID))
	_, err = repo.GetClass(ctx, cls.ID)
	assert.Equal(t, ErrClassNotFound, err)
	_, err = repo.GetClass(ctx, "")
	assert.Equal(t, ErrClassNotFound, err)
	_, err = repo.UpdateClass(ctx, cls)
	assert.Equal(t, ErrClassNotFound, err)
}

func TestRepository_Students(t *testing.T) {
	ctx := context.Background()
	db, _ := dummydb.Open()
	repo := NewRepository(db)

	create := func(first, last, classID string, enrolled bool) Student {
		std, err := repo.CreateStudent(ctx, Student{FirstName: first, LastName: last, ClassID: classID, IsEnrolled: enrolled, Matricule: "M-" + last})
		require.NoError(t, err)
		return std
	}
	amani := create("Amani", "Kabila", "c1", true)
	create("Grace", "Mbuyi", "c1", false)
	create("Joel", "Kabasele", "c2", true)

	enrolled := true
	tests := []struct {
		name   string
		filter StudentFilter
		want   int
	}{
		{name: "all", want: 3},
		{name: "class", filter: StudentFilter{ClassID: "c1"}, want: 2},
		{name: "enrolled", filter: StudentFilter{IsEnrolled: &enrolled}, want: 2},
		{name: "search", filter: StudentFilter{Search: " KABI "}, want: 1},
		{name: "search matricule", filter: StudentFilter{Search: "m-kab"}, want: 2},
		{name: "combined", filter: StudentFilter{ClassID: "c2", Search: "kabila"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students, err := repo.FilterStudents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, students, tt.want)
		})
	}

	amani.ClassID = "c2"
	_, err := repo.UpdateStudent(ctx, amani)
	require.NoError(t, err)
	got, err := repo.GetStudent(ctx, amani.ID)
	require.NoError(t, err)
	assert.Equal(t, "c2", got.ClassID)
	assert.Equal(t, "Amani Kabila", got.FullName())

	require.NoError(t, repo.DeleteStudent(ctx, amani.ID))
	_, err = repo.GetStudent(ctx, amani.ID)
	assert.Equal(t, ErrStudentNotFound, err)
}

func TestNewStudent_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	ns := NewStudent{FirstName: " Amani ", LastName: "Kabila", GuardianEmail: " Parent@Ecolage.Test "}
	require.NoError(t, ns.Validate(validate))
	std := ns.Student()
	assert.Equal(t, "Amani", std.FirstName)
	assert.Equal(t, "parent@ecolage.test", std.GuardianEmail)
	assert.True(t, std.IsEnrolled)

	bad := NewStudent{FirstName: "Amani", LastName: "  "}
	assert.Error(t, bad.Validate(validate))
	bad = NewStudent{FirstName: "Amani", LastName: "Kabila", SchoolYear: "2025"}
	assert.Error(t, bad.Validate(validate))

	nc := NewClass{Name: "6eme A", Level: " "}
	assert.Error(t, nc.Validate(validate))
}
