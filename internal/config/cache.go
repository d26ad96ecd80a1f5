package config

import (
    "strings"
    "time"
)

// CacheConfig controls the Redis response cache on GET /dashboard/last20.
// Entries live for TTL and responses above MaxBodyBytes are not stored.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string // route, route_query or user_route_query
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_*.  The TTL is short since the dashboard
// should show a new submission within seconds even if a purge is missed.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      methodSet(envStr("CACHE_METHODS", "GET")),
        TTL:          envDur("CACHE_TTL", 10*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "mh:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

// methodSet turns "get, head" into {"GET", "HEAD"}.
func methodSet(csv string) map[string]bool {
    set := make(map[string]bool)
    for _, m := range strings.Split(csv, ",") {
        if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
            set[m] = true
        }
    }
    return set
}
