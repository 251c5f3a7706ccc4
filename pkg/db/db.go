package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotMigrated indicates the schema is older than this build expects.
var ErrNotMigrated = errors.New("state database not migrated")

// DB is the virtual device state database.
type DB struct {
	*sql.DB
	path   string
	states *stateStore
}

// Open opens or creates the state database at path, or under the user
// config directory when path is empty. Connections use WAL with a busy
// timeout so webhook writes and EXECUTE writes queue instead of failing.
func Open(path string) (*DB, error) {
	path, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connecting to state database %s: %w", path, err)
	}

	db := &DB{DB: sqlDB, path: path}
	db.states = &stateStore{db: db}
	return db, nil
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Check pings the database and confirms the schema is current. It backs the
// bridge's health endpoint.
func (db *DB) Check(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	version, err := db.getSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version < currentSchemaVersion {
		return fmt.Errorf("schema version %d, want %d: %w", version, currentSchemaVersion, ErrNotMigrated)
	}
	return nil
}

// Tx runs fn in a transaction, rolling back when fn fails.
func (db *DB) Tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	switch {
	case path == "":
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("locating config directory: %w", err)
		}
		return filepath.Join(dir, "homai-bridge", "state.db"), nil
	case path == "~" || strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	default:
		return path, nil
	}
}
