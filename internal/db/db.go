package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/glebarez/go-sqlite"
)

const rosterSchema = `
CREATE TABLE IF NOT EXISTS players (
	name       TEXT PRIMARY KEY,
	times_seen INTEGER NOT NULL DEFAULT 0,
	first_seen INTEGER NOT NULL,
	last_seen  INTEGER NOT NULL,
	last_addr  TEXT NOT NULL DEFAULT ''
);`

// OpenSQLite opens the SQLite database at path and makes sure the roster
// schema exists.
func OpenSQLite(path string) (*sqlx.DB, error) {
	pool, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	pool.SetMaxOpenConns(1)

	if err := InitializeDB(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// InitializeDB creates the roster table if it does not exist.
func InitializeDB(pool *sqlx.DB) error {
	if _, err := pool.Exec(rosterSchema); err != nil {
		return fmt.Errorf("failed to create players table: %w", err)
	}
	return nil
}
