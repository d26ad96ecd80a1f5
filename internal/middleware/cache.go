package middleware

import (
    "bytes"
    "context"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/maternal-health/internal/config"
)

// cachedResponse is what a cache entry holds.
type cachedResponse struct {
    Status int         `json:"status"`
    Header http.Header `json:"header"`
    Body   []byte      `json:"body"`
}

// skipHeaders are per-request and never replayed from the cache.  The CORS
// headers depend on the caller's Origin and were already set for this
// request.
var skipHeaders = map[string]bool{
    echo.HeaderContentLength:                 true,
    echo.HeaderXRequestID:                    true,
    "X-Cache":                                true,
    echo.HeaderVary:                          true,
    echo.HeaderAccessControlAllowOrigin:      true,
    echo.HeaderAccessControlAllowCredentials: true,
    echo.HeaderAccessControlExposeHeaders:    true,
}

// bodyRecorder tees the response to the client and into buf until limit
// bytes have been seen.  A response larger than limit is marked overflowed
// and never stored.
type bodyRecorder struct {
    http.ResponseWriter
    status     int
    buf        bytes.Buffer
    limit      int
    overflowed bool
}

func (r *bodyRecorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
    if !r.overflowed {
        if r.limit > 0 && r.buf.Len()+len(b) > r.limit {
            r.overflowed = true
            r.buf.Reset()
        } else {
            r.buf.Write(b)
        }
    }
    return r.ResponseWriter.Write(b)
}

// cacheKey returns "<prefix>:<sha256>" for the request.  Strategies:
// "route" ignores the query, "user_route_query" adds the caller id, and
// anything else is "route_query".
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    var b strings.Builder
    b.WriteString(c.Request().Method)
    b.WriteString(" ")
    b.WriteString(c.Path())
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
    case "user_route_query":
        b.WriteString("?" + c.Request().URL.RawQuery)
        b.WriteString("#" + userID(c))
    default:
        b.WriteString("?" + c.Request().URL.RawQuery)
    }
    sum := sha256.Sum256([]byte(b.String()))
    return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

func encodeEntry(e cachedResponse) ([]byte, error) { return json.Marshal(e) }

func decodeEntry(bs []byte) (cachedResponse, bool) {
    var e cachedResponse
    if err := json.Unmarshal(bs, &e); err != nil || e.Status == 0 {
        return cachedResponse{}, false
    }
    return e, true
}

// replay writes a cached response, keeping the headers already set for
// this request where they are in skipHeaders.
func replay(res *echo.Response, e cachedResponse) error {
    for k, vals := range e.Header {
        if skipHeaders[http.CanonicalHeaderKey(k)] {
            continue
        }
        res.Header()[k] = vals
    }
    res.Header().Set("X-Cache", "HIT")
    res.WriteHeader(e.Status)
    _, err := res.Write(e.Body)
    return err
}

// NewRedisCache keeps 200 responses of the configured methods in Redis for
// cfg.TTL (10s when unset).  Hits are replayed with X-Cache: HIT.  Redis
// errors are logged and the request is served fresh.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 10 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[c.Request().Method] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)
            res := c.Response()

            bs, err := rdb.Get(ctx, key).Bytes()
            if err != nil && !errors.Is(err, redis.Nil) {
                log.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
            }
            if entry, ok := decodeEntry(bs); err == nil && ok {
                return replay(res, entry)
            }

            rec := &bodyRecorder{ResponseWriter: res.Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            res.Writer = rec
            res.Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.overflowed {
                return nil
            }

            payload, err := encodeEntry(cachedResponse{Status: rec.status, Header: res.Header().Clone(), Body: rec.buf.Bytes()})
            if err == nil {
                sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
                err = rdb.Set(sctx, key, payload, ttl).Err()
                cancel()
            }
            if err != nil {
                log.Warn("cache store failed", zap.String("key", key), zap.Error(err))
            }
            return nil
        }
    }
}

// CachePurger drops every cached response under a prefix.  Writes that
// change dashboard data call Purge so the next read is fresh.
type CachePurger struct {
    rdb    *redis.Client
    prefix string
}

// NewCachePurger returns nil when caching is off, which Purge treats as a
// no-op.
func NewCachePurger(cfg config.CacheConfig, rdb *redis.Client) *CachePurger {
    if !cfg.Enabled || rdb == nil {
        return nil
    }
    return &CachePurger{rdb: rdb, prefix: cfg.Prefix}
}

// Purge deletes all keys under "<prefix>:".
func (p *CachePurger) Purge(ctx context.Context) error {
    if p == nil {
        return nil
    }
    iter := p.rdb.Scan(ctx, 0, p.prefix+":*", 200).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) == 0 {
        return nil
    }
    return p.rdb.Del(ctx, keys...).Err()
}
