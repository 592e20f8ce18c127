package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/feeschedule"
	"github.com/trezcool/ecolage/core/payment"
	"github.com/trezcool/ecolage/core/school"
	"github.com/trezcool/ecolage/core/setting"
	"github.com/trezcool/ecolage/core/staff"
	logsvc "github.com/trezcool/ecolage/services/logger"
	dummydb "github.com/trezcool/ecolage/storage/database/dummy"
)

const (
	SchoolYear = "2025-2026"
	Password   = "Kinshasa#2025"
)

// NewConfig returns a test configuration; it ignores the environment.
func NewConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Ecolage",
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			Host:                      "localhost",
			Address:                   ":0",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
		Database: core.DatabaseConfig{Engine: core.EngineMemory},
		School: core.SchoolConfig{
			Name:       "Complexe Scolaire La Colombe",
			ActiveYear: SchoolYear,
			Currency:   "FCFA",
		},
		Email: core.EmailConfig{From: "Ecolage <noreply@ecolage.test>"},
	}
}

// NewLogger returns a logger printing nowhere and reporting nothing.
func NewLogger() core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), NewConfig())
}

// NewValidator returns a validator with every application tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	payment.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)
	return validate, translator
}

// Env wires every repository and service over one in-memory store.
type Env struct {
	Conf       *core.Config
	Store      *dummydb.DB
	Students   school.Repository
	Schedules  feeschedule.Repository
	Settings   *setting.Repository
	Payments   payment.Repository
	Staff      *staff.Service
	Resolver   *feeschedule.Resolver
	Settlement *payment.Settlement
	Engine     *payment.Engine
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return NewEnvWithStore(t, db, db)
}

// NewEnvWithStore wires the services over store; db is the underlying in-memory store.
func NewEnvWithStore(t *testing.T, store core.Store, db *dummydb.DB) *Env {
	t.Helper()
	conf := NewConfig()
	env := &Env{
		Conf:      conf,
		Store:     db,
		Students:  school.NewRepository(store),
		Schedules: feeschedule.NewRepository(store),
		Settings:  setting.NewRepository(store, conf),
		Payments:  payment.NewRepository(store),
		Staff:     staff.NewService(staff.NewRepository(store)),
	}
	env.Resolver = feeschedule.NewResolver(env.Students, env.Schedules, env.Settings)
	env.Settlement = payment.NewSettlement(env.Payments, env.Resolver)
	env.Engine = payment.NewEngine(store, env.Resolver, env.Students, NewLogger())
	return env
}

func CreateClass(t *testing.T, repo school.Repository, name, level, year string) school.Class {
	t.Helper()
	cls, err := repo.CreateClass(context.Background(), school.Class{Name: name, Level: level, SchoolYear: year})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func CreateStudent(t *testing.T, repo school.Repository, firstName, lastName, classID string) school.Student {
	t.Helper()
	std, err := repo.CreateStudent(context.Background(), school.Student{
		FirstName:     firstName,
		LastName:      lastName,
		ClassID:       classID,
		IsEnrolled:    true,
		GuardianName:  "Parent " + lastName,
		GuardianEmail: "parent." + firstName + "@ecolage.test",
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

// CreateSchedule configures a schedule whose installments have ordinals 1..len(amounts).
func CreateSchedule(t *testing.T, repo feeschedule.Repository, level, year string, amounts ...int64) feeschedule.Schedule {
	t.Helper()
	insts := make([]feeschedule.Installment, 0, len(amounts))
	for i, amount := range amounts {
		insts = append(insts, feeschedule.Installment{
			Ordinal: i + 1,
			DueDate: time.Date(2025, time.September+time.Month(i), 15, 0, 0, 0, 0, time.UTC).Format(core.DateLayout),
			Amount:  amount,
		})
	}
	s, err := repo.CreateSchedule(context.Background(), feeschedule.Schedule{Level: level, SchoolYear: year, Installments: insts})
	if err != nil {
		t.Fatalf("CreateSchedule() failed: %v", err)
	}
	return s
}

// CreatePayment records a payment directly, bypassing allocation.
func CreatePayment(t *testing.T, repo payment.Repository, studentID string, typ payment.Type, amount int64) payment.Payment {
	t.Helper()
	p, err := repo.CreatePayment(context.Background(), payment.Payment{
		StudentID: studentID,
		Type:      typ,
		Amount:    amount,
		Date:      "2025-09-01",
		Mode:      payment.ModeCash,
	})
	if err != nil {
		t.Fatalf("CreatePayment() failed: %v", err)
	}
	return p
}

// CreateAccount creates an active staff account with Password.
func CreateAccount(t *testing.T, svc *staff.Service, name, email, role string) staff.Account {
	t.Helper()
	acc, err := svc.Create(context.Background(), staff.NewAccount{
		Name:            name,
		Email:           email,
		Role:            role,
		Password:        Password,
		PasswordConfirm: Password,
	})
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	return acc
}
