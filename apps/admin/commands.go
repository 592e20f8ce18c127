package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/backup"
	"github.com/trezcool/ecolage/core/payment"
	"github.com/trezcool/ecolage/core/staff"
)

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.db == nil {
		return errNoSQL
	}
	return gooseRunFunc(ctx, cli.db, cli.conf.Database.Engine, args[0], args[1:]...)
}

func (cli *commandLine) addUser(ctx context.Context, na staff.NewAccount) error {
	if err := na.Validate(cli.validate); err != nil {
		return err
	}
	acc, err := cli.staffSvc.Create(ctx, na)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s account for %s <%s>\n", acc.Role, acc.Name, acc.Email)
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	acc, err := cli.staffSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return cli.staffSvc.ChangePassword(ctx, acc.ID, pwd)
}

func (cli *commandLine) setYear(ctx context.Context, year string) error {
	if err := cli.settings.SetActiveSchoolYear(ctx, year); err != nil {
		return err
	}
	year, err := cli.settings.ActiveSchoolYear(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "active school year: %s\n", year)
	return nil
}

func (cli *commandLine) pay(ctx context.Context, req payment.Request) error {
	if err := req.Validate(cli.validate); err != nil {
		return err
	}
	res, err := cli.engine.Allocate(ctx, req)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RECEIPT\tTYPE\tAMOUNT")
	for _, p := range res.Payments {
		fmt.Fprintf(w, "%s\t%s\t%d\n", p.ReceiptNumber, p.Label(), p.Amount)
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if res.Surplus > 0 {
		fmt.Fprintf(cli.out, "surplus: %d %s\n", res.Surplus, cli.conf.School.Currency)
	}
	return nil
}

func (cli *commandLine) statement(ctx context.Context, studentID string) error {
	std, err := cli.students.GetStudent(ctx, studentID)
	if err != nil {
		return err
	}
	st, err := cli.settlement.Statement(ctx, std.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%s (%s)\n", std.FullName(), std.ID)
	if !st.HasSchedule {
		fmt.Fprintln(cli.out, "no fee schedule applies to this student")
	} else {
		fmt.Fprintf(cli.out, "fee schedule: %s %s\n", st.Level, st.SchoolYear)
		w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tINSTALLMENT\tDUE\tEXPECTED\tPAID\tREMAINING")
		for _, inst := range st.Installments {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\n", inst.Ordinal, inst.Name, inst.DueDate, inst.Expected, inst.Paid, inst.Remaining)
		}
		if err = w.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintf(cli.out, "paid: %d, unassigned: %d, other: %d, balance: %d %s\n",
		st.TotalPaid, st.Unassigned, st.Other, st.Balance, cli.conf.School.Currency)
	return nil
}

func (cli *commandLine) cleanup(ctx context.Context, studentID string) error {
	if studentID != "" {
		if _, err := cli.students.GetStudent(ctx, studentID); err != nil {
			return err
		}
	}
	n, err := cli.engine.DeleteZeroAmount(ctx, studentID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "deleted %d zero-amount payment(s)\n", n)
	return nil
}

func (cli *commandLine) backup(ctx context.Context, path string) error {
	w := cli.out
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "creating backup file")
		}
		defer f.Close()
		w = f
	}

	snap, err := backup.Export(ctx, cli.store, w)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintf(cli.out, "exported %d record(s) to %s\n", snap.Count(), path)
	}
	return nil
}

func (cli *commandLine) restore(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening backup file")
	}
	defer f.Close()

	snap, err := backup.Import(ctx, cli.store, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "restored %d record(s) in %d collection(s)\n", snap.Count(), len(snap.Collections))
	return nil
}

func (cli *commandLine) reset(ctx context.Context, collections []string) error {
	for _, coll := range collections {
		if !isCollection(coll) {
			return errors.Errorf("unknown collection %q", coll)
		}
	}
	if err := backup.Reset(ctx, cli.store, collections...); err != nil {
		return err
	}
	if len(collections) == 0 {
		fmt.Fprintln(cli.out, "deleted every record")
	} else {
		fmt.Fprintf(cli.out, "deleted every record of: %v\n", collections)
	}
	return nil
}

func isCollection(name string) bool {
	for _, coll := range core.AllCollections {
		if coll == name {
			return true
		}
	}
	return false
}
