package model

import (
    "strings"
    "time"
)

// Roles stored in users.role.  Self-registered accounts get RoleUser;
// RoleAdmin is granted directly in the database.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// User is a row of the users table.  A field worker signs up with a
// government ID that, like the email, is unique.
type User struct {
    ID           uint64
    Username     string
    Email        string // stored lower-cased
    PasswordHash string // bcrypt
    GovtID       string
    Role         string
    IsActive     bool
    CreatedAt    time.Time
    UpdatedAt    time.Time
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
