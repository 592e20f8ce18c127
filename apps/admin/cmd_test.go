package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/payment"
	"github.com/trezcool/ecolage/core/staff"
	"github.com/trezcool/ecolage/storage/database"
	dummydb "github.com/trezcool/ecolage/storage/database/dummy"
	testutil "github.com/trezcool/ecolage/tests"
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
	extra      interface{}
}

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	store, err := dummydb.Open()
	require.NoError(t, err)
	out := new(bytes.Buffer)
	return newCommandLine(testutil.NewConfig(), store, nil, out), out
}

func (tt cliTest) check(t *testing.T, cli *commandLine, out *bytes.Buffer) {
	out.Reset()
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, describe(err))
		}
	default:
		assert.NoError(t, err)
	}
	if tt.wantOut != "" {
		assert.Contains(t, out.String(), tt.wantOut)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown flag", args: []string{"setyear", "-lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.check(t, cli, out) })
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	t.Run("memory engine", func(t *testing.T) {
		cliTest{args: []string{"migrate", "up"}, wantErr: errNoSQL}.check(t, cli, out)
	})

	conf := testutil.NewConfig()
	conf.Database = core.DatabaseConfig{Engine: core.EngineSQLite, Path: ":memory:"}
	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cli.db, cli.conf = db.DB, conf

	gooseRunFunc = func(_ context.Context, _ *sql.DB, engine, command string, args ...string) error {
		if engine != core.EngineSQLite {
			return fmt.Errorf("unexpected engine %q", engine)
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}
	t.Cleanup(func() { gooseRunFunc = database.RunMigration })

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.check(t, cli, out) })
	}
}

func Test_commandLine_accounts(t *testing.T) {
	cli, out := setup(t)
	existing := testutil.CreateAccount(t, cli.staffSvc, "Directrice", "admin@ecolage.test", staff.RoleAdmin)

	type passwords struct {
		pwd, confirm string
	}
	tests := []cliTest{
		{name: "adduser: no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "adduser: no password", args: []string{"adduser", "-name", "Caissier", "-email", "caisse@ecolage.test"}, wantErr: errHelp},
		{
			name: "adduser: mismatch", args: []string{"adduser", "-name", "Caissier", "-email", "caisse@ecolage.test"},
			extra: passwords{"Lubumbashi#2026", "Lubumbashi#2027"}, wantErrStr: `password_confirm: failed on "eqfield"`,
		},
		{
			name: "adduser: bad role", args: []string{"adduser", "-name", "Caissier", "-email", "caisse@ecolage.test", "-role", "chef"},
			extra: passwords{"Lubumbashi#2026", "Lubumbashi#2026"}, wantErrStr: `role: failed on "staffrole"`,
		},
		{
			name: "adduser: duplicate", args: []string{"adduser", "-name", "Directrice", "-email", "ADMIN@ecolage.test"},
			extra: passwords{"Lubumbashi#2026", "Lubumbashi#2026"}, wantErrStr: "email: " + staff.ErrEmailExists.Error(),
		},
		{
			name: "adduser", args: []string{"adduser", "-name", "Caissier", "-email", "caisse@ecolage.test"},
			extra: passwords{"Lubumbashi#2026", "Lubumbashi#2026"}, wantOut: "created bursar account for Caissier <caisse@ecolage.test>",
		},
		{name: "resetpassword: no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "resetpassword: no password", args: []string{"resetpassword", "-email", existing.Email}, wantErr: errHelp},
		{name: "resetpassword: unknown", args: []string{"resetpassword", "-email", "nope@ecolage.test"}, extra: passwords{pwd: "Lubumbashi#2026"}, wantErr: staff.ErrNotFound},
		{name: "resetpassword", args: []string{"resetpassword", "-email", " Admin@Ecolage.test "}, extra: passwords{pwd: "Lubumbashi#2026"}},
	}
	for _, tt := range tests {
		tt := tt
		readPasswordFunc = func(fd int) ([]byte, error) {
			p, ok := tt.extra.(passwords)
			if !ok {
				return nil, nil
			}
			pwd := p.pwd
			p.pwd = p.confirm // next prompt
			tt.extra = p
			return []byte(pwd), nil
		}
		t.Run(tt.name, func(t *testing.T) { tt.check(t, cli, out) })
	}

	ctx := context.Background()
	_, err := cli.staffSvc.Authenticate(ctx, staff.Credentials{Email: "caisse@ecolage.test", Password: "Lubumbashi#2026"})
	assert.NoError(t, err)
	_, err = cli.staffSvc.Authenticate(ctx, staff.Credentials{Email: existing.Email, Password: testutil.Password})
	assert.Equal(t, staff.ErrInvalidCredentials, err)
	_, err = cli.staffSvc.Authenticate(ctx, staff.Credentials{Email: existing.Email, Password: "Lubumbashi#2026"})
	assert.NoError(t, err)
}

func Test_commandLine_payments(t *testing.T) {
	cli, out := setup(t)
	cls := testutil.CreateClass(t, cli.students, "6ème A", "6eme", testutil.SchoolYear)
	testutil.CreateSchedule(t, cli.schedules, "6eme", testutil.SchoolYear, 35000, 15000, 10000)
	std := testutil.CreateStudent(t, cli.students, "Amani", "Kabila", cls.ID)

	tests := []cliTest{
		{name: "setyear: no args", args: []string{"setyear"}, wantErr: errHelp},
		{name: "setyear: bad year", args: []string{"setyear", "-year", "2025"}, wantErrStr: "school_year: school year must look like 2025-2026"},
		{name: "setyear", args: []string{"setyear", "-year", testutil.SchoolYear}, wantOut: "active school year: 2025-2026"},
		{name: "pay: no args", args: []string{"pay"}, wantErr: errHelp},
		{name: "pay: bad amount", args: []string{"pay", "-student", std.ID, "-amount", "abc"}, wantErr: payment.ErrInvalidAmount},
		{name: "pay: unknown student", args: []string{"pay", "-student", "nope", "-amount", "1000"}, wantErrStr: "student not found"},
		{name: "pay: bad mode", args: []string{"pay", "-student", std.ID, "-amount", "1000", "-mode", "bitcoin"}, wantErrStr: `mode: failed on "paymentmode"`},
		{name: "pay", args: []string{"pay", "-student", std.ID, "-amount", "50 000", "-mode", "cash"}, wantOut: "Tranche 2"},
		{name: "pay: other", args: []string{"pay", "-student", std.ID, "-amount", "2500", "-label", "Cantine"}, wantOut: "cantine"},
		{name: "pay: surplus", args: []string{"pay", "-student", std.ID, "-amount", "12000"}, wantOut: "surplus: 2000 FCFA"},
		{name: "statement: no args", args: []string{"statement"}, wantErr: errHelp},
		{name: "statement", args: []string{"statement", "-student", std.ID}, wantOut: "paid: 64500, unassigned: 2000, other: 2500, balance: 0 FCFA"},
		{name: "cleanup: unknown student", args: []string{"cleanup", "-student", "nope"}, wantErrStr: "student not found"},
		{name: "cleanup", args: []string{"cleanup"}, wantOut: "deleted 0 zero-amount payment(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.check(t, cli, out) })
	}
}

func Test_commandLine_backup(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()
	std := testutil.CreateStudent(t, cli.students, "Amani", "Kabila", "")
	path := filepath.Join(t.TempDir(), "backup.json")

	tests := []cliTest{
		{name: "backup", args: []string{"backup", "-out", path}, wantOut: "exported 1 record(s)"},
		{name: "reset: not confirmed", args: []string{"reset"}, wantErr: errHelp},
		{name: "reset: unknown collection", args: []string{"reset", "-yes", "lol"}, wantErrStr: `unknown collection "lol"`},
		{name: "reset", args: []string{"reset", "-yes", core.CollectionStudents}, wantOut: "deleted every record of: [students]"},
		{name: "restore: no args", args: []string{"restore"}, wantErr: errHelp},
		{name: "restore", args: []string{"restore", "-in", path}, wantOut: "restored 1 record(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.check(t, cli, out) })
	}

	restored, err := cli.students.GetStudent(ctx, std.ID)
	require.NoError(t, err)
	assert.Equal(t, std.FullName(), restored.FullName())

	t.Run("backup to stdout", func(t *testing.T) {
		cliTest{args: []string{"backup"}, wantOut: `"version": 1`}.check(t, cli, out)
	})

	t.Run("restore: missing file", func(t *testing.T) {
		err := cli.run([]string{"admin", "restore", "-in", filepath.Join(t.TempDir(), "nope.json")})
		assert.True(t, os.IsNotExist(errors.Cause(err)))
	})
}
