package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	sqlTimeLayout = "2006-01-02 15:04:05"
	sqlDateLayout = "2006-01-02"
)

// sqlTime renders t in UTC in the layout both MySQL DATETIME and SQLite
// accept as a bind parameter.
func sqlTime(t time.Time) string { return t.UTC().Format(sqlTimeLayout) }

// sqlDate renders the calendar day of t.
func sqlDate(t time.Time) string { return t.Format(sqlDateLayout) }

// isDuplicateKey reports whether err is a unique-key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint failed")
}

// likePattern wraps a search term for a case-insensitive LIKE against a
// LOWER(column).
func likePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
