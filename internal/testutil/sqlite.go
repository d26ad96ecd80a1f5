// Package testutil provides throwaway databases for package tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// sqliteSchema mirrors database/schema.sql with SQLite types.  Columns keep
// the DATETIME/DATE declarations so the driver hands back time.Time values.
var sqliteSchema = []string{
	`CREATE TABLE users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		govt_id       TEXT NOT NULL UNIQUE,
		role          TEXT NOT NULL DEFAULT 'user',
		is_active     INTEGER NOT NULL DEFAULT 1,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE refresh_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE maternal_health_diff (
		id                         INTEGER PRIMARY KEY AUTOINCREMENT,
		name                       TEXT NULL,
		age                        INTEGER NULL,
		past_pregnancy_count       INTEGER NULL DEFAULT 0,
		blood_group_mother         TEXT NULL,
		blood_group_father         TEXT NULL,
		medical_bg_mother          TEXT NULL,
		medical_bg_father          TEXT NULL,
		years_since_last_pregnancy INTEGER NULL CHECK (years_since_last_pregnancy >= 0),
		delivery_type              TEXT NULL,
		haemoglobin                REAL NULL,
		external_id                TEXT NULL,
		submitted_by               INTEGER NULL,
		surveyed                   INTEGER NOT NULL DEFAULT 0,
		created_at                 DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE post_delivery (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		mother_name     TEXT NULL,
		delivery_date   DATE NOT NULL,
		complications   TEXT NULL,
		child_weight_kg REAL NOT NULL CHECK (child_weight_kg > 0),
		child_diseases  TEXT NULL,
		notes           TEXT NULL,
		submitted_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		external_id     TEXT NULL,
		submitted_by    INTEGER NULL,
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// NewDB opens a fresh SQLite database in the test's temp dir with every
// table created.  The handle is closed when the test ends.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range sqliteSchema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

// Exec runs a statement and fails the test on error.  Used to seed rows
// with fixed timestamps.
func Exec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}
