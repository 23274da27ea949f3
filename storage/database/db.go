package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/academia/core"
	appfs "github.com/trezcool/academia/fs"
)

// PingAttempts bounds how long Open and CreateIfNotExist wait for the database.
var PingAttempts = 30

func open(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
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
	return sql.Open(conf.Database.Engine, u.String())
}

// Open opens the app database and waits for it to accept connections.
func Open(conf *core.Config) (*sql.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	for attempts := 1; attempts <= PingAttempts; attempts++ {
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

// ensure runs create unless the exists query, given name, returns a row.
func ensure(db *sql.DB, exists, name, create string) error {
	var found bool
	err := db.QueryRow(exists, name).Scan(&found)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return errors.Wrapf(err, "looking up %s", name)
	}
	_, err = db.Exec(create)
	return errors.Wrapf(err, "creating %s", name)
}

// CreateIfNotExist creates the app role as admin, then the app database as the app role.
func CreateIfNotExist(conf *core.Config) error {
	dbc := conf.Database
	steps := []struct {
		admin  bool
		skip   bool
		exists string
		name   string
		create string
	}{
		{
			admin:  true,
			skip:   dbc.User == "",
			exists: `SELECT true FROM pg_roles WHERE rolname = $1`,
			name:   dbc.User,
			create: fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD %s", pq.QuoteIdentifier(dbc.User), pq.QuoteLiteral(dbc.Password)),
		},
		{
			exists: `SELECT true FROM pg_database WHERE datname = $1`,
			name:   dbc.Name,
			create: "CREATE DATABASE " + pq.QuoteIdentifier(dbc.Name),
		},
	}

	for _, step := range steps {
		if step.skip {
			continue
		}
		db, err := open("postgres", step.admin, conf)
		if err != nil {
			return errors.Wrap(err, "opening database")
		}
		if err = ping(db); err == nil {
			err = ensure(db, step.exists, step.name, step.create)
		}
		_ = db.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// Migrate applies the embedded migrations.
func Migrate(db *sql.DB) error {
	if err := goose.RunFS("up", db, appfs.FS, "migrations"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}
