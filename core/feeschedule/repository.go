package feeschedule

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
)

var (
	// errors
	ErrScheduleNotFound    = errors.New("fee schedule not found")
	ErrScheduleExists      = errors.New("a fee schedule already exists for this level and school year")
	ErrInstallmentNotFound = errors.New("installment not found")
)

type Repository interface {
	CreateSchedule(ctx context.Context, s Schedule) (Schedule, error)
	QueryAllSchedules(ctx context.Context) ([]Schedule, error)
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	// FindSchedule returns the schedule of the (level, year) pair, compared with string equality.
	FindSchedule(ctx context.Context, level, year string) (Schedule, error)
	UpdateSchedule(ctx context.Context, s Schedule) (Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
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

func (repo *repository) decode(rec core.Record) (Schedule, error) {
	var s Schedule
	if err := rec.DecodeWithMeta(&s); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// checkUniqueness fails if another schedule is configured for the same (level, year).
func (repo *repository) checkUniqueness(ctx context.Context, s Schedule) error {
	all, err := repo.QueryAllSchedules(ctx)
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.ID != s.ID && other.Matches(s.Level, s.SchoolYear) {
			return core.NewValidationError(ErrScheduleExists, core.FieldError{Field: "level", Error: ErrScheduleExists.Error()})
		}
	}
	return nil
}

func (repo *repository) CreateSchedule(ctx context.Context, s Schedule) (Schedule, error) {
	if err := repo.checkUniqueness(ctx, s); err != nil {
		return Schedule{}, err
	}
	rec, err := repo.store.Create(ctx, core.CollectionFeeSchedules, s)
	if err != nil {
		return Schedule{}, errors.Wrap(err, "creating fee schedule")
	}
	return repo.decode(rec)
}

func (repo *repository) QueryAllSchedules(ctx context.Context) ([]Schedule, error) {
	recs, err := repo.store.GetAll(ctx, core.CollectionFeeSchedules)
	if err != nil {
		return nil, errors.Wrap(err, "querying fee schedules")
	}
	schedules := make([]Schedule, 0, len(recs))
	for _, rec := range recs {
		s, err := repo.decode(rec)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

func (repo *repository) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	if id == "" {
		return Schedule{}, ErrScheduleNotFound
	}
	rec, err := repo.store.GetByID(ctx, core.CollectionFeeSchedules, id)
	if err != nil {
		if errors.Cause(err) == core.ErrRecordNotFound {
			return Schedule{}, ErrScheduleNotFound
		}
		return Schedule{}, errors.Wrap(err, "finding fee schedule by ID")
	}
	return repo.decode(rec)
}

func (repo *repository) FindSchedule(ctx context.Context, level, year string) (Schedule, error) {
	all, err := repo.QueryAllSchedules(ctx)
	if err != nil {
		return Schedule{}, err
	}
	for _, s := range all {
		if s.Matches(level, year) {
			return s, nil
		}
	}
	return Schedule{}, ErrScheduleNotFound
}

func (repo *repository) UpdateSchedule(ctx context.Context, s Schedule) (Schedule, error) {
	if err := repo.checkUniqueness(ctx, s); err != nil {
		return Schedule{}, err
	}
	rec, err := repo.store.Update(ctx, core.CollectionFeeSchedules, s.ID, s)
	if err != nil {
		if errors.Cause(err) == core.ErrRecordNotFound {
			return Schedule{}, ErrScheduleNotFound
		}
		return Schedule{}, errors.Wrap(err, "updating fee schedule")
	}
	return repo.decode(rec)
}

func (repo *repository) DeleteSchedule(ctx context.Context, id string) error {
	ok, err := repo.store.Delete(ctx, core.CollectionFeeSchedules, id)
	if err != nil {
		return errors.Wrap(err, "deleting fee schedule")
	}
	if !ok {
		return ErrScheduleNotFound
	}
	return nil
}
