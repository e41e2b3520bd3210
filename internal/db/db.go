package db

import (
	"database/sql"
	"fmt"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// pragmas are applied to every connection. synchronous=FULL makes a commit
// return only after the WAL is fsynced.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"synchronous(FULL)",
}

// Open opens a SQLite database and configures pragmas on every pooled
// connection. The in-memory database is pinned to a single connection because
// each new connection would see its own empty database.
func Open(path string) (*sqlx.DB, error) {
	if path == MemoryPath {
		return openMemory()
	}

	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	dsn := "file:" + path + "?" + q.Encode()

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return sqlx.NewDb(sqlDB, "sqlite"), nil
}

func openMemory() (*sqlx.DB, error) {
	sqlDB, err := sql.Open("sqlite", MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	for _, p := range pragmas {
		stmt := "PRAGMA " + pragmaAssignment(p)
		if _, err := sqlDB.Exec(stmt); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", stmt, err)
		}
	}

	return sqlx.NewDb(sqlDB, "sqlite"), nil
}

// pragmaAssignment turns the DSN form "name(value)" into "name=value".
func pragmaAssignment(p string) string {
	for i := 0; i < len(p); i++ {
		if p[i] == '(' && p[len(p)-1] == ')' {
			return p[:i] + "=" + p[i+1:len(p)-1]
		}
	}
	return p
}
