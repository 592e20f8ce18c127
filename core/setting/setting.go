// Package setting holds process-wide values editable from the back office, such as the active school year.
package setting

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
)

// Keys
const (
	KeyActiveSchoolYear = "active_school_year"
)

type entry struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Repository reads and writes settings stored in the settings collection.
// Unset values fall back to the configured defaults.
type Repository struct {
	store    core.Store
	defaults map[string]string
}

func NewRepository(store core.Store, conf *core.Config) *Repository {
	vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
	).CheckAndPanic()
	defaults := make(map[string]string)
	if conf != nil && conf.School.ActiveYear != "" {
		defaults[KeyActiveSchoolYear] = conf.School.ActiveYear
	}
	return &Repository{store: store, defaults: defaults}
}

func (repo *Repository) find(ctx context.Context, key string) (entry, bool, error) {
	recs, err := repo.store.GetAll(ctx, core.CollectionSettings)
	if err != nil {
		return entry{}, false, errors.Wrap(err, "querying settings")
	}
	for _, rec := range recs {
		var e entry
		if err = rec.DecodeWithMeta(&e); err != nil {
			return entry{}, false, err
		}
		if e.Key == key {
			return e, true, nil
		}
	}
	return entry{}, false, nil
}

// Get returns the stored value of key, or its default ("" if none).
func (repo *Repository) Get(ctx context.Context, key string) (string, error) {
	e, ok, err := repo.find(ctx, key)
	if err != nil {
		return "", err
	}
	if ok && e.Value != "" {
		return e.Value, nil
	}
	return repo.defaults[key], nil
}

// Set stores value under key, replacing any previous value.
func (repo *Repository) Set(ctx context.Context, key, value string) error {
	e, ok, err := repo.find(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		_, err = repo.store.Update(ctx, core.CollectionSettings, e.ID, map[string]string{"value": value})
		return errors.Wrap(err, "updating setting")
	}
	_, err = repo.store.Create(ctx, core.CollectionSettings, entry{Key: key, Value: value})
	return errors.Wrap(err, "creating setting")
}

// ActiveSchoolYear returns the school year used when neither the class nor the student has one.
func (repo *Repository) ActiveSchoolYear(ctx context.Context) (string, error) {
	return repo.Get(ctx, KeyActiveSchoolYear)
}

func (repo *Repository) SetActiveSchoolYear(ctx context.Context, year string) error {
	year = core.CleanString(year)
	if !core.IsSchoolYear(year) {
		return core.NewValidationError(nil, core.FieldError{Field: "school_year", Error: "school year must look like 2025-2026"})
	}
	return repo.Set(ctx, KeyActiveSchoolYear, year)
}
