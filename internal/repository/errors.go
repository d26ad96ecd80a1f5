// Package repository holds the SQL behind every handler.  Repositories take
// a *sql.DB, speak plain database/sql and translate driver errors into the
// sentinels below so handlers can pick a status code without touching SQL.
package repository

import "errors"

// ErrNotFound is returned when a lookup by id matches no row.  Handlers
// translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailOrGovtIDExists is returned by UserRepo.Create when the email or
// the government id is already taken.  Handlers translate it into HTTP 409.
var ErrEmailOrGovtIDExists = errors.New("email or government id already registered")

// ErrTokenInvalid is returned for refresh tokens that are unknown, revoked
// or expired.
var ErrTokenInvalid = errors.New("refresh token invalid")
