package school

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecolage/core"
)

type Class struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Level      string    `json:"level"`       // matched against fee schedules, eg: "6eme"
	SchoolYear string    `json:"school_year"` // eg: "2025-2026"
	CreatedAt  time.Time `json:"created_at"`  // UTC
	UpdatedAt  time.Time `json:"updated_at"`  // UTC
}

type Student struct {
	ID            string    `json:"id"`
	Matricule     string    `json:"matricule"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	ClassID       string    `json:"class_id"`
	SchoolYear    string    `json:"school_year"` // enrollment year
	IsEnrolled    bool      `json:"is_enrolled"`
	GuardianName  string    `json:"guardian_name"`
	GuardianEmail string    `json:"guardian_email"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name       string `json:"name" validate:"required,notblank"`
	Level      string `json:"level" validate:"required,notblank"`
	SchoolYear string `json:"school_year" validate:"omitempty,schoolyear"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Level = core.CleanString(nc.Level)
	nc.SchoolYear = core.CleanString(nc.SchoolYear)
	return validate.Struct(nc)
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Matricule     string `json:"matricule"`
	FirstName     string `json:"first_name" validate:"required,notblank"`
	LastName      string `json:"last_name" validate:"required,notblank"`
	ClassID       string `json:"class_id"`
	SchoolYear    string `json:"school_year" validate:"omitempty,schoolyear"`
	IsEnrolled    *bool  `json:"is_enrolled"`
	GuardianName  string `json:"guardian_name"`
	GuardianEmail string `json:"guardian_email" validate:"omitempty,email"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Matricule = core.CleanString(ns.Matricule)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.ClassID = core.CleanString(ns.ClassID)
	ns.SchoolYear = core.CleanString(ns.SchoolYear)
	ns.GuardianName = core.CleanString(ns.GuardianName)
	ns.GuardianEmail = core.CleanString(ns.GuardianEmail, true /* lower */)
	return validate.Struct(ns)
}

func (ns NewStudent) Student() Student {
	enrolled := true
	if ns.IsEnrolled != nil {
		enrolled = *ns.IsEnrolled
	}
	return Student{
		Matricule:     ns.Matricule,
		FirstName:     ns.FirstName,
		LastName:      ns.LastName,
		ClassID:       ns.ClassID,
		SchoolYear:    ns.SchoolYear,
		IsEnrolled:    enrolled,
		GuardianName:  ns.GuardianName,
		GuardianEmail: ns.GuardianEmail,
	}
}

// StudentFilter applies AND operation on the set fields.
// Search does a case-insensitive match on the names and matricule.
type StudentFilter struct {
	Search     string `query:"search"`
	ClassID    string `query:"class_id"`
	IsEnrolled *bool  `query:"is_enrolled"`
}

func (f StudentFilter) match(s Student) bool {
	if f.ClassID != "" && s.ClassID != f.ClassID {
		return false
	}
	if f.IsEnrolled != nil && s.IsEnrolled != *f.IsEnrolled {
		return false
	}
	if search := core.CleanString(f.Search, true /* lower */); search != "" {
		hay := strings.ToLower(s.FirstName + " " + s.LastName + " " + s.Matricule)
		if !strings.Contains(hay, search) {
			return false
		}
	}
	return true
}
