// Package catalog persists cataloged codes and account credentials in a SQL database.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	_ "embed"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

const (
	DriverSQLite   = "sqlite"
	DriverLibsql   = "libsql"
	DriverPostgres = "postgres"
)

type Config struct {
	// Driver is one of sqlite, libsql or postgres.
	Driver string `json:"driver"`
	// File is the database file of the sqlite driver.
	File string `json:"file"`
	// URL is the connection url of the libsql and postgres drivers.
	URL       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func DefaultConfig() Config {
	return Config{
		Driver: DriverSQLite,
		File:   "hoyocodes.db",
	}
}

// DB is a database handle that knows the SQL dialect it speaks.
type DB struct {
	*sql.DB
	dialect Dialect
}

func Open(ctx context.Context, cfg Config) (*DB, error) {
	var (
		db      *DB
		err     error
		dialect = DialectSQLite
	)
	switch cfg.Driver {
	case "", DriverSQLite:
		db, err = openSQLite(cfg.File)
	case DriverLibsql:
		db, err = openLibsql(cfg.URL, cfg.AuthToken)
	case DriverPostgres:
		dialect = DialectPostgres
		db, err = openPostgres(cfg.URL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	db.dialect = dialect

	err = db.migrate(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openSQLite(file string) (*DB, error) {
	if file == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	if file != ":memory:" {
		_, statErr := os.Stat(file)
		if os.IsNotExist(statErr) {
			f, err := os.Create(file)
			if err != nil {
				return nil, err
			}
			f.Close()
		}
	}

	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, err
	}
	// sqlite only supports a single writer, concurrent connections only produce
	// SQLITE_BUSY errors
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db}, nil
}

func openLibsql(rawURL, authToken string) (*DB, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("a libsql url was not specified")
	}
	if authToken != "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		query := u.Query()
		query.Set("authToken", authToken)
		u.RawQuery = query.Encode()
		rawURL = u.String()
	}
	db, err := sql.Open("libsql", rawURL)
	if err != nil {
		return nil, err
	}
	return &DB{DB: db}, nil
}

func openPostgres(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("a postgres url was not specified")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{DB: db}, nil
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) migrate(ctx context.Context) error {
	schema := sqliteSchema
	if db.dialect == DialectPostgres {
		schema = postgresSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders into the placeholder style of the dialect.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var out strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			out.WriteByte('$')
			out.WriteString(strconv.Itoa(n))
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
