package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/feeschedule"
	"github.com/trezcool/ecolage/core/payment"
	"github.com/trezcool/ecolage/core/school"
	"github.com/trezcool/ecolage/core/setting"
	"github.com/trezcool/ecolage/core/staff"
	logsvc "github.com/trezcool/ecolage/services/logger"
	"github.com/trezcool/ecolage/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword     // mockable
	gooseRunFunc     = database.RunMigration // mockable

	errHelp  = errors.New("help provided")
	errNoSQL = errors.New("migrations need a SQL database engine")
)

type commandLine struct {
	conf       *core.Config
	out        io.Writer
	db         *sql.DB // nil with the memory engine
	store      core.Restorer
	validate   *validator.Validate
	staffSvc   *staff.Service
	students   school.Repository
	schedules  feeschedule.Repository
	settings   *setting.Repository
	engine     *payment.Engine
	settlement *payment.Settlement
}

func newCommandLine(conf *core.Config, store core.Restorer, db *sql.DB, out io.Writer) *commandLine {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	payment.InitValidators(validate, translator)
	staff.InitValidators(validate, translator)

	if logger == nil {
		logger = logsvc.NewRollbarLogger(log.New(out, "ADMIN : ", log.LstdFlags), conf)
	}

	students := school.NewRepository(store)
	schedules := feeschedule.NewRepository(store)
	settings := setting.NewRepository(store, conf)
	resolver := feeschedule.NewResolver(students, schedules, settings)
	return &commandLine{
		conf:       conf,
		out:        out,
		db:         db,
		store:      store,
		validate:   validate,
		staffSvc:   staff.NewService(staff.NewRepository(store)),
		students:   students,
		schedules:  schedules,
		settings:   settings,
		engine:     payment.NewEngine(store, resolver, students, logger),
		settlement: payment.NewSettlement(payment.NewRepository(store), resolver),
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                          - run a migration command (up, down, status, version...)")
	fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL [-role ROLE]     - create a staff account; the password is prompted next")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                       - reset a staff member's password")
	fmt.Fprintln(cli.out, "  setyear -year YYYY-YYYY                          - set the active school year")
	fmt.Fprintln(cli.out, "  pay -student ID -amount AMOUNT [-ordinal N] [-label LABEL] [-mode MODE] [-date YYYY-MM-DD] [-note NOTE]")
	fmt.Fprintln(cli.out, "                                                   - record a payment")
	fmt.Fprintln(cli.out, "  statement -student ID                            - print a student's statement")
	fmt.Fprintln(cli.out, "  cleanup [-student ID]                            - delete zero-amount payments")
	fmt.Fprintln(cli.out, "  backup [-out FILE]                               - export every record as JSON")
	fmt.Fprintln(cli.out, "  restore -in FILE                                 - import a backup, replacing its collections")
	fmt.Fprintln(cli.out, "  reset -yes [COLLECTION...]                       - delete every record of the collections")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	case "adduser":
		cmd := cli.newFlagSet("adduser")
		name := cmd.String("name", "", "The staff member's full name.")
		email := cmd.String("email", "", "The staff member's email, used to log in.")
		role := cmd.String("role", staff.RoleBursar, "One of: "+strings.Join(staff.Roles, ", ")+".")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *name == "" || *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, confirm, err := cli.promptPassword(true)
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, staff.NewAccount{Name: *name, Email: *email, Role: *role, Password: pwd, PasswordConfirm: confirm})

	case "resetpassword":
		cmd := cli.newFlagSet("resetpassword")
		email := cmd.String("email", "", "The staff member's email. The password will be prompted next.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *email == "" {
			cmd.Usage()
			return errHelp
		}
		pwd, _, err := cli.promptPassword(false)
		if err != nil {
			return err
		}
		if pwd == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *email, pwd)

	case "setyear":
		cmd := cli.newFlagSet("setyear")
		year := cmd.String("year", "", "The school year, eg: 2025-2026.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *year == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.setYear(ctx, *year)

	case "pay":
		cmd := cli.newFlagSet("pay")
		studentID := cmd.String("student", "", "The student's ID.")
		amount := cmd.String("amount", "", "The amount received, in whole Francs, eg: \"35 000\".")
		ordinal := cmd.Int("ordinal", 0, "Put the whole amount on this installment.")
		label := cmd.String("label", "", "Record a payment outside the fee schedule, eg: cantine.")
		mode := cmd.String("mode", "", "How the money was received: cash, mobile, cheque or transfer.")
		date := cmd.String("date", "", "The payment date; defaults to today.")
		note := cmd.String("note", "", "A free text note.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *studentID == "" || *amount == "" {
			cmd.Usage()
			return errHelp
		}
		amt, err := payment.ParseAmount(*amount)
		if err != nil {
			return err
		}
		return cli.pay(ctx, payment.Request{
			StudentID: *studentID,
			Amount:    amt,
			Ordinal:   *ordinal,
			Label:     *label,
			Mode:      payment.Mode(*mode),
			Date:      *date,
			Note:      *note,
		})

	case "statement":
		cmd := cli.newFlagSet("statement")
		studentID := cmd.String("student", "", "The student's ID.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *studentID == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.statement(ctx, *studentID)

	case "cleanup":
		cmd := cli.newFlagSet("cleanup")
		studentID := cmd.String("student", "", "Only clean up this student's payments.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.cleanup(ctx, *studentID)

	case "backup":
		cmd := cli.newFlagSet("backup")
		out := cmd.String("out", "", "The file to write; defaults to the standard output.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.backup(ctx, *out)

	case "restore":
		cmd := cli.newFlagSet("restore")
		in := cmd.String("in", "", "The backup file to read.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *in == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.restore(ctx, *in)

	case "reset":
		cmd := cli.newFlagSet("reset")
		yes := cmd.Bool("yes", false, "Confirm that the records must be deleted.")
		if err := cmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if !*yes {
			cmd.Usage()
			return errHelp
		}
		return cli.reset(ctx, cmd.Args())

	default:
		cli.printUsage()
		return errHelp
	}
}

// promptPassword reads a password (and its confirmation) without echoing it.
func (cli *commandLine) promptPassword(confirm bool) (pwd, confirmation string, err error) {
	fmt.Fprint(cli.out, "Enter password:")
	raw, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", "", err
	}
	if !confirm || len(raw) == 0 {
		return string(raw), string(raw), nil
	}

	fmt.Fprint(cli.out, "Confirm password:")
	rawConfirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", "", err
	}
	return string(raw), string(rawConfirm), nil
}

// describe renders err for the operator, listing the fields of validation errors.
func describe(err error) string {
	switch verr := pkgerrors.Cause(err).(type) {
	case validator.ValidationErrors:
		msgs := make([]string, 0, len(verr))
		for _, fe := range verr {
			msgs = append(msgs, fmt.Sprintf("%s: failed on %q", fe.Field(), fe.Tag()))
		}
		return strings.Join(msgs, "; ")
	case *core.ValidationError:
		if len(verr.Fields) > 0 {
			msgs := make([]string, 0, len(verr.Fields))
			for _, fe := range verr.Fields {
				msgs = append(msgs, fe.Field+": "+fe.Error)
			}
			return strings.Join(msgs, "; ")
		}
	}
	return err.Error()
}
