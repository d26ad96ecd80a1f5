package config

import (
    "context"
    "crypto/tls"
    "net"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis used by the dashboard cache and the
// credential rate limiter.  Redis is optional: nil is returned when the
// settings are invalid or the server does not answer a ping within two
// seconds, and callers then run without cache or limiter.
func NewRedisClient() *redis.Client {
    opts, err := redisOptions()
    if err != nil {
        return nil
    }
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}

// redisOptions reads REDIS_URL when set.  Otherwise the address comes from
// REDIS_HOST plus REDIS_PORT, then REDIS_ADDR, then localhost:6379, with
// REDIS_PASSWORD, REDIS_DB and REDIS_TLS applied on top.
func redisOptions() (*redis.Options, error) {
    if raw, ok := lookup("REDIS_URL"); ok {
        return redis.ParseURL(raw)
    }
    addr := envStr("REDIS_ADDR", "localhost:6379")
    if host, ok := lookup("REDIS_HOST"); ok {
        addr = net.JoinHostPort(host, envStr("REDIS_PORT", "6379"))
    }
    opts := &redis.Options{
        Addr:     addr,
        Password: envStr("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts, nil
}
