package feeschedule

import (
	"context"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/ecolage/core/school"
)

// suggestMinRatio is the minimum similarity for SuggestLevel to propose a level.
const suggestMinRatio = 0.6

// YearSource provides the process-wide active school year.
type YearSource interface {
	ActiveSchoolYear(ctx context.Context) (string, error)
}

// Lookup is the outcome of a schedule resolution.
type Lookup struct {
	Student  school.Student
	Class    school.Class
	HasClass bool
	Year     string
	Schedule Schedule
	Found    bool
}

// Resolver finds the fee schedule applicable to a student.
type Resolver struct {
	students  school.Repository
	schedules Repository
	years     YearSource
}

func NewResolver(students school.Repository, schedules Repository, years YearSource) *Resolver {
	vala.BeginValidation().Validate(
		vala.IsNotNil(students, "students"),
		vala.IsNotNil(schedules, "schedules"),
		vala.IsNotNil(years, "years"),
	).CheckAndPanic()
	return &Resolver{students: students, schedules: schedules, years: years}
}

// Resolve returns the schedule matching the student's class level and school year.
// found is false when none can be determined; that is not an error.
// It fails with school.ErrStudentNotFound for unknown students.
func (r *Resolver) Resolve(ctx context.Context, studentID string) (s Schedule, found bool, err error) {
	lk, err := r.Lookup(ctx, studentID)
	if err != nil {
		return Schedule{}, false, err
	}
	return lk.Schedule, lk.Found, nil
}

// Lookup resolves the schedule and reports the intermediate steps.
func (r *Resolver) Lookup(ctx context.Context, studentID string) (Lookup, error) {
	std, err := r.students.GetStudent(ctx, studentID)
	if err != nil {
		return Lookup{}, err
	}
	lk := Lookup{Student: std}

	cls, err := r.students.GetClass(ctx, std.ClassID)
	if err != nil {
		if errors.Cause(err) == school.ErrClassNotFound {
			return lk, nil
		}
		return Lookup{}, errors.Wrap(err, "finding student class")
	}
	lk.Class = cls
	lk.HasClass = true

	// class year > student year > active year
	switch {
	case cls.SchoolYear != "":
		lk.Year = cls.SchoolYear
	case std.SchoolYear != "":
		lk.Year = std.SchoolYear
	default:
		if lk.Year, err = r.years.ActiveSchoolYear(ctx); err != nil {
			return Lookup{}, errors.Wrap(err, "getting active school year")
		}
	}

	s, err := r.schedules.FindSchedule(ctx, cls.Level, lk.Year)
	if err != nil {
		if errors.Cause(err) == ErrScheduleNotFound {
			return lk, nil
		}
		return Lookup{}, err
	}
	lk.Schedule = s
	lk.Found = true
	return lk, nil
}

// SuggestLevel returns the configured level of year closest to level, if any is close enough.
// It is a hint for operators: resolution itself only uses exact matches.
func (r *Resolver) SuggestLevel(ctx context.Context, level, year string) (string, bool, error) {
	all, err := r.schedules.QueryAllSchedules(ctx)
	if err != nil {
		return "", false, err
	}
	levels := make([]string, 0, len(all))
	for _, s := range all {
		if s.SchoolYear == year {
			levels = append(levels, s.Level)
		}
	}
	best, ok := SuggestLevel(levels, level)
	return best, ok, nil
}

// SuggestLevel returns the element of levels most similar to level.
func SuggestLevel(levels []string, level string) (string, bool) {
	var (
		best      string
		bestRatio float64
	)
	norm := func(s string) []string { return strings.Split(strings.ToLower(strings.TrimSpace(s)), "") }
	for _, candidate := range levels {
		if candidate == level {
			continue
		}
		ratio := difflib.NewMatcher(norm(level), norm(candidate)).Ratio()
		if ratio > bestRatio {
			best, bestRatio = candidate, ratio
		}
	}
	return best, bestRatio >= suggestMinRatio
}
