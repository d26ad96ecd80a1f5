// Package config reads the service settings from the environment.
package config

import (
    "log"
    "os"

    "github.com/joho/godotenv"
)

// Config is the core service configuration.  Optional subsystems (cache,
// rate limiting, predictor, artifacts, events) have their own Load*
// functions so they can be read on demand.
type Config struct {
    Env  string
    Port string

    DBUser string
    DBPass string
    DBHost string
    DBPort string
    DBName string

    JWTSecret      string
    AccessTTLMin   int // access token lifetime, minutes
    RefreshTTLDays int // refresh token lifetime, days
    BcryptCost     int
    DisableAuth    bool // DISABLE_AUTH=1 opens the protected routes

    BodyLimit   string // echo notation, e.g. "1M"
    CORSOrigins string // comma separated, "*" for any
}

// LoadDotEnv loads variables from files (".env" when none are given).
// Missing files are skipped and variables already set win over the file.
func LoadDotEnv(files ...string) {
    if len(files) == 0 {
        files = []string{".env"}
    }
    for _, f := range files {
        if _, err := os.Stat(f); err != nil {
            continue
        }
        if err := godotenv.Load(f); err != nil {
            log.Printf("config: skipping %s: %v", f, err)
        }
    }
}

// Load builds a Config.  DB_USER, DB_NAME and JWT_SECRET are required; the
// process exits when one is missing.  APP_PORT falls back to PORT and then
// to 3000, the port the mobile client uses in development.
func Load() Config {
    return Config{
        Env:  envStr("APP_ENV", "dev"),
        Port: envStr("APP_PORT", envStr("PORT", "3000")),

        DBUser: required("DB_USER"),
        DBPass: os.Getenv("DB_PASS"),
        DBHost: envStr("DB_HOST", "localhost"),
        DBPort: envStr("DB_PORT", "3306"),
        DBName: required("DB_NAME"),

        JWTSecret:      required("JWT_SECRET"),
        AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 7*24*60),
        RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 30),
        BcryptCost:     envInt("BCRYPT_COST", 10),
        DisableAuth:    envBool("DISABLE_AUTH", false),

        BodyLimit:   envStr("BODY_LIMIT", "1M"),
        CORSOrigins: envStr("CORS_ORIGINS", "*"),
    }
}

func required(key string) string {
    v, ok := lookup(key)
    if !ok {
        log.Fatalf("config: %s must be set", key)
    }
    return v
}
