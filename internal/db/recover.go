package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrCorrupt reports a database file that failed the integrity check.
var ErrCorrupt = errors.New("database file is corrupt")

// OpenOrRecover opens the database at path, checks its integrity and applies
// the schema. A corrupt file is moved aside and replaced by an empty database;
// the returned string is then the path the damaged file was moved to. Any other
// failure (permissions, missing directory) is returned as an error.
func OpenOrRecover(path string) (*sqlx.DB, string, error) {
	database, err := openChecked(path)
	if err == nil {
		return database, "", nil
	}
	if !IsCorrupt(err) || path == MemoryPath {
		return nil, "", err
	}

	moved, mvErr := quarantine(path)
	if mvErr != nil {
		return nil, "", fmt.Errorf("moving corrupt database aside: %w", mvErr)
	}

	database, err = openChecked(path)
	if err != nil {
		return nil, moved, fmt.Errorf("recreating database: %w", err)
	}
	return database, moved, nil
}

func openChecked(path string) (*sqlx.DB, error) {
	database, err := Open(path)
	if err != nil {
		return nil, err
	}

	var result string
	if err := database.Get(&result, "PRAGMA quick_check"); err != nil {
		database.Close()
		return nil, fmt.Errorf("checking database integrity: %w", err)
	}
	if result != "ok" {
		database.Close()
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, result)
	}

	if err := Migrate(database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// IsCorrupt reports whether err means the file is damaged or not a SQLite
// database at all.
func IsCorrupt(err error) bool {
	if errors.Is(err, ErrCorrupt) {
		return true
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
			return true
		}
	}
	// The driver does not always keep the typed error when a connection-time
	// pragma fails.
	msg := err.Error()
	return strings.Contains(msg, "file is not a database") ||
		strings.Contains(msg, "database disk image is malformed")
}

// quarantine renames the database and its WAL side files.
func quarantine(path string) (string, error) {
	target := fmt.Sprintf("%s.corrupt-%s", path, time.Now().UTC().Format("20060102T150405"))
	if err := os.Rename(path, target); err != nil {
		return "", err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if _, err := os.Stat(path + suffix); err == nil {
			if err := os.Rename(path+suffix, target+suffix); err != nil {
				return "", err
			}
		}
	}
	return target, nil
}
