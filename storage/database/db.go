package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/ecolage/core"
	appfs "github.com/trezcool/ecolage/fs"
	dummydb "github.com/trezcool/ecolage/storage/database/dummy"
	sqlxdb "github.com/trezcool/ecolage/storage/database/sqlx"
)

func open(dbName string, admin bool, conf *core.Config) (*sqlx.DB, error) {
	if conf.Database.Engine == core.EngineSQLite {
		if dir := filepath.Dir(conf.Database.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "creating database directory")
			}
		}
		db, err := sqlx.Open(core.EngineSQLite, conf.Database.Path+"?_foreign_keys=on&_busy_timeout=5000")
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1) // single writer
		return db, nil
	}

	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sqlx.Open(conf.Database.Engine, u.String())
}

// Open connects to the configured SQL database.
func Open(conf *core.Config) (*sqlx.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenStore returns the record store of the configured engine, ready to use (migrated)
// and a function releasing it.
func OpenStore(conf *core.Config) (core.Restorer, func() error, error) {
	if conf.Database.Engine == core.EngineMemory {
		db, err := dummydb.Open()
		return db, func() error { return nil }, err
	}

	if conf.Database.Engine == core.EnginePostgres {
		if err := CreateIfNotExist(conf); err != nil {
			return nil, nil, err
		}
	}
	db, err := Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if err = Migrate(db.DB, conf.Database.Engine); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlxdb.NewStore(db), db.Close, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func exists(db *sqlx.DB, query, name string) (bool, error) {
	var found []bool
	if err := db.Select(&found, db.Rebind(query), name); err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func createAppUser(db *sqlx.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}

	// check if app user exists
	ok, err := exists(db, "SELECT true FROM pg_roles WHERE rolname = ?", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}

	// create app user if not exist
	if !ok {
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err = db.Exec(q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(db *sqlx.DB, conf *core.Config) error {
	// check if DB exists
	ok, err := exists(db, "SELECT true FROM pg_database WHERE datname = ?", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}

	// create DB if not exist
	if !ok {
		if _, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// CreateIfNotExist creates the postgres app user and database. Other engines need no bootstrap.
func CreateIfNotExist(conf *core.Config) error {
	if conf.Database.Engine != core.EnginePostgres {
		return nil
	}

	// connect as admin
	db, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = ping(db.DB); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(db, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}

	// create DB as app user
	appDB, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = appDB.Close() }()

	if err = createDB(appDB, conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

func setupGoose(engine string) error {
	goose.SetBaseFS(appfs.FS)
	return goose.SetDialect(engine)
}

// Migrate applies the pending migrations embedded in the binary.
func Migrate(db *sql.DB, engine string) error {
	if err := setupGoose(engine); err != nil {
		return errors.Wrap(err, "selecting migration dialect")
	}
	if err := goose.Up(db, appfs.MigrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigration runs a goose command (up, down, status, version...) against the embedded migrations.
func RunMigration(ctx context.Context, db *sql.DB, engine, command string, args ...string) error {
	if err := setupGoose(engine); err != nil {
		return errors.Wrap(err, "selecting migration dialect")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := goose.Run(command, db, appfs.MigrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migration %q", command)
	}
	return nil
}
