package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/ecolage/core"
	logsvc "github.com/trezcool/ecolage/services/logger"
	"github.com/trezcool/ecolage/storage/database"
	dummydb "github.com/trezcool/ecolage/storage/database/dummy"
	sqlxdb "github.com/trezcool/ecolage/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	// migrations are applied on open, except when running them by hand
	autoMigrate := len(os.Args) < 2 || os.Args[1] != "migrate"
	store, db, closeFn, err := openStore(conf, autoMigrate)
	errAndDie(err)

	// start CLI
	cli := newCommandLine(conf, store, db, os.Stdout)
	err = cli.run(os.Args)
	if cerr := closeFn(); cerr != nil {
		logger.Error("closing record store", cerr)
	}
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", describe(err))
		}
		os.Exit(1)
	}
}

// openStore opens the configured record store. db is nil with the memory engine.
func openStore(conf *core.Config, migrate bool) (core.Restorer, *sql.DB, func() error, error) {
	if conf.Database.Engine == core.EngineMemory {
		store, err := dummydb.Open()
		return store, nil, func() error { return nil }, err
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, nil, nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, nil, err
	}
	if migrate {
		if err = database.Migrate(db.DB, conf.Database.Engine); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
	}
	return sqlxdb.NewStore(db), db.DB, db.Close, nil
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
