package school

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
	ErrClassNotFound   = errors.New("class not found")
)

type Repository interface {
	CreateClass(ctx context.Context, cls Class) (Class, error)
	QueryAllClasses(ctx context.Context) ([]Class, error)
	GetClass(ctx context.Context, id string) (Class, error)
	UpdateClass(ctx context.Context, cls Class) (Class, error)
	DeleteClass(ctx context.Context, id string) error

	CreateStudent(ctx context.Context, std Student) (Student, error)
	QueryAllStudents(ctx context.Context) ([]Student, error)
	FilterStudents(ctx context.Context, filter StudentFilter) ([]Student, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	UpdateStudent(ctx context.Context, std Student) (Student, error)
	DeleteStudent(ctx context.Context, id string) error
}

type repository struct {
	store core.Store
}

var _ Repository = (*repository)(nil) // interface compliance check

func NewRepository(store core.Store) Repository {
	vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
	).CheckAndPanic()
	return &repository{store: store}
}

// trapNotFound maps core.ErrRecordNotFound to notFound
func trapNotFound(err error, notFound error, msg string) error {
	if errors.Cause(err) == core.ErrRecordNotFound {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo *repository) CreateClass(ctx context.Context, cls Class) (Class, error) {
	rec, err := repo.store.Create(ctx, core.CollectionClasses, cls)
	if err != nil {
		return Class{}, errors.Wrap(err, "creating class")
	}
	var created Class
	if err = rec.DecodeWithMeta(&created); err != nil {
		return Class{}, err
	}
	return created, nil
}

func (repo *repository) QueryAllClasses(ctx context.Context) ([]Class, error) {
	recs, err := repo.store.GetAll(ctx, core.CollectionClasses)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]Class, 0, len(recs))
	for _, rec := range recs {
		var cls Class
		if err = rec.DecodeWithMeta(&cls); err != nil {
			return nil, err
		}
		classes = append(classes, cls)
	}
	return classes, nil
}

func (repo *repository) GetClass(ctx context.Context, id string) (Class, error) {
	if id == "" {
		return Class{}, ErrClassNotFound
	}
	rec, err := repo.store.GetByID(ctx, core.CollectionClasses, id)
	if err != nil {
		return Class{}, trapNotFound(err, ErrClassNotFound, "finding class by ID")
	}
	var cls Class
	if err = rec.DecodeWithMeta(&cls); err != nil {
		return Class{}, err
	}
	return cls, nil
}

func (repo *repository) UpdateClass(ctx context.Context, cls Class) (Class, error) {
	rec, err := repo.store.Update(ctx, core.CollectionClasses, cls.ID, cls)
	if err != nil {
		return Class{}, trapNotFound(err, ErrClassNotFound, "updating class")
	}
	var updated Class
	if err = rec.DecodeWithMeta(&updated); err != nil {
		return Class{}, err
	}
	return updated, nil
}

func (repo *repository) DeleteClass(ctx context.Context, id string) error {
	ok, err := repo.store.Delete(ctx, core.CollectionClasses, id)
	if err != nil {
		return errors.Wrap(err, "deleting class")
	}
	if !ok {
		return ErrClassNotFound
	}
	return nil
}

func (repo *repository) CreateStudent(ctx context.Context, std Student) (Student, error) {
	rec, err := repo.store.Create(ctx, core.CollectionStudents, std)
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	var created Student
	if err = rec.DecodeWithMeta(&created); err != nil {
		return Student{}, err
	}
	return created, nil
}

func (repo *repository) QueryAllStudents(ctx context.Context) ([]Student, error) {
	return repo.FilterStudents(ctx, StudentFilter{})
}

func (repo *repository) FilterStudents(ctx context.Context, filter StudentFilter) ([]Student, error) {
	recs, err := repo.store.GetAll(ctx, core.CollectionStudents)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]Student, 0, len(recs))
	for _, rec := range recs {
		var std Student
		if err = rec.DecodeWithMeta(&std); err != nil {
			return nil, err
		}
		if filter.match(std) {
			students = append(students, std)
		}
	}
	return students, nil
}

func (repo *repository) GetStudent(ctx context.Context, id string) (Student, error) {
	if id == "" {
		return Student{}, ErrStudentNotFound
	}
	rec, err := repo.store.GetByID(ctx, core.CollectionStudents, id)
	if err != nil {
		return Student{}, trapNotFound(err, ErrStudentNotFound, "finding student by ID")
	}
	var std Student
	if err = rec.DecodeWithMeta(&std); err != nil {
		return Student{}, err
	}
	return std, nil
}

func (repo *repository) UpdateStudent(ctx context.Context, std Student) (Student, error) {
	rec, err := repo.store.Update(ctx, core.CollectionStudents, std.ID, std)
	if err != nil {
		return Student{}, trapNotFound(err, ErrStudentNotFound, "updating student")
	}
	var updated Student
	if err = rec.DecodeWithMeta(&updated); err != nil {
		return Student{}, err
	}
	return updated, nil
}

func (repo *repository) DeleteStudent(ctx context.Context, id string) error {
	ok, err := repo.store.Delete(ctx, core.CollectionStudents, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if !ok {
		return ErrStudentNotFound
	}
	return nil
}
