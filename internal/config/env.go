package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// lookup returns the trimmed value of k and whether it is non-empty.
func lookup(k string) (string, bool) {
    v := strings.TrimSpace(os.Getenv(k))
    return v, v != ""
}

func envStr(k, def string) string {
    if v, ok := lookup(k); ok {
        return v
    }
    return def
}

// envBool accepts the strconv.ParseBool forms plus yes/no and on/off.
func envBool(k string, def bool) bool {
    v, ok := lookup(k)
    if !ok {
        return def
    }
    switch strings.ToLower(v) {
    case "yes", "on":
        return true
    case "no", "off":
        return false
    }
    if b, err := strconv.ParseBool(v); err == nil {
        return b
    }
    return def
}

func envInt(k string, def int) int {
    v, ok := lookup(k)
    if !ok {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return def
    }
    return n
}

func envDur(k string, def time.Duration) time.Duration {
    v, ok := lookup(k)
    if !ok {
        return def
    }
    d, err := time.ParseDuration(v)
    if err != nil {
        return def
    }
    return d
}
