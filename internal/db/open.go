package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"apkfetch/pkg/devenv"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Dialect int

const (
	DialectSqlite Dialect = iota
	DialectLibsql
	DialectPostgres
)

func (d Dialect) String() string {
	switch d {
	case DialectSqlite:
		return "sqlite"
	case DialectLibsql:
		return "libsql"
	case DialectPostgres:
		return "postgres"
	}
	return fmt.Sprintf("Dialect(%d)", int(d))
}

type Config struct {
	// one of "sqlite" (default), "libsql" or "postgres"
	Driver string `json:"driver"`
	// sqlite database file, may be prefixed with <dev_state>
	File string `json:"file"`
	// libsql server url, or a full postgres connection string
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`

	Host     string `json:"host"`
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// PostgresDSN returns Url when it is set, otherwise it assembles a
// connection string from the individual fields.
func (c Config) PostgresDSN() string {
	if c.Url != "" {
		return c.Url
	}
	dsn := url.URL{
		Scheme: "postgres",
		Host:   c.Host,
		Path:   "/" + c.Name,
	}
	if c.Password != "" {
		dsn.User = url.UserPassword(c.User, c.Password)
	} else if c.User != "" {
		dsn.User = url.User(c.User)
	}
	return dsn.String()
}

func wrapOpen(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenSqlite opens a local sqlite database, ":memory:" is passed through
// as is.
func OpenSqlite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		resolved, err := devenv.ResolvePath(path)
		if err != nil {
			return nil, wrapOpen(err)
		}
		path = resolved
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpen(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, wrapOpen(err)
	}
	return db, nil
}

// Open opens the database described by config and checks that it is
// reachable. The caller owns the returned pool and must Close it.
func Open(ctx context.Context, config Config) (*sql.DB, Dialect, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)

	switch config.Driver {
	case "", "sqlite":
		dialect = DialectSqlite
		file := config.File
		if file == "" {
			file = "apkfetch.db"
		}
		db, err = OpenSqlite(file)
	case "libsql":
		dialect = DialectLibsql
		if config.Url == "" {
			return nil, dialect, wrapOpen(fmt.Errorf("libsql driver requires a url"))
		}
		dbUrl := config.Url
		if config.AuthToken != "" {
			dbUrl = fmt.Sprintf("%s?authToken=%s", dbUrl, url.QueryEscape(config.AuthToken))
		}
		db, err = sql.Open("libsql", dbUrl)
	case "postgres":
		dialect = DialectPostgres
		db, err = sql.Open("pgx", config.PostgresDSN())
	default:
		return nil, dialect, wrapOpen(fmt.Errorf("unknown driver '%s'", config.Driver))
	}
	if err != nil {
		return nil, dialect, wrapOpen(err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, dialect, wrapOpen(err)
	}
	return db, dialect, nil
}
