package middleware

import (
    "context"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
    "go.uber.org/zap/zaptest/observer"

    "github.com/iliyamo/maternal-health/internal/config"
    "github.com/iliyamo/maternal-health/internal/utils"
)

const testSecret = "test-secret"

func okHandler(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "user_id":  c.Get(CtxUserID),
        "role":     c.Get(CtxRole),
        "username": c.Get(CtxUsername),
    })
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func newToken(t *testing.T, ttlMin int) string {
    t.Helper()
    tok, err := utils.NewAccessToken(testSecret, utils.Identity{ID: 42, Email: "w@x.io", Role: "user", Username: "worker"}, ttlMin)
    require.NoError(t, err)
    return tok.Token
}

func TestJWTAuth(t *testing.T) {
    e := echo.New()
    e.GET("/p", okHandler, JWTAuth(testSecret, zap.NewNop()))
    valid := newToken(t, 10)
    expired := newToken(t, -10)

    cases := []struct {
        name   string
        header string
        status int
        body   string
    }{
        {"missing", "", http.StatusUnauthorized, "Missing or malformed Authorization header"},
        {"wrong scheme", "Basic abc", http.StatusUnauthorized, "Missing or malformed Authorization header"},
        {"empty token", "Bearer ", http.StatusUnauthorized, "Missing or malformed Authorization header"},
        {"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid or expired token"},
        {"expired", "Bearer " + expired, http.StatusUnauthorized, "Invalid or expired token"},
        {"valid", "Bearer " + valid, http.StatusOK, `"user_id":42`},
        {"lowercase scheme", "bearer " + valid, http.StatusOK, `"username":"worker"`},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/p", nil)
            if tc.header != "" {
                req.Header.Set("Authorization", tc.header)
            }
            rec := serve(e, req)
            assert.Equal(t, tc.status, rec.Code)
            assert.Contains(t, rec.Body.String(), tc.body)
        })
    }
}

func TestJWTAuthWithoutSecret(t *testing.T) {
    e := echo.New()
    core, logs := observer.New(zap.ErrorLevel)
    e.GET("/p", okHandler, JWTAuth("", zap.New(core)))
    req := httptest.NewRequest(http.MethodGet, "/p", nil)
    req.Header.Set("Authorization", "Bearer x.y.z")
    rec := serve(e, req)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.Contains(t, rec.Body.String(), "Server misconfiguration")
    require.Equal(t, 1, logs.FilterMessage("jwt secret not configured").Len())
    assert.Equal(t, "/p", logs.All()[0].ContextMap()["path"])
}

func TestRequireRole(t *testing.T) {
    e := echo.New()
    setRole := func(role any) echo.MiddlewareFunc {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error {
                c.Set(CtxRole, role)
                return next(c)
            }
        }
    }
    e.GET("/user", okHandler, setRole("user"), RequireRole("user", "admin"))
    e.GET("/guest", okHandler, setRole("guest"), RequireRole("user", "admin"))
    e.GET("/admin", okHandler, setRole("ADMIN"), RequireRole("user", "admin"))
    e.GET("/none", okHandler, setRole(nil), RequireRole("user"))

    assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/user", nil)).Code)
    assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
    assert.Equal(t, http.StatusForbidden, serve(e, httptest.NewRequest(http.MethodGet, "/guest", nil)).Code)
    assert.Equal(t, http.StatusUnauthorized, serve(e, httptest.NewRequest(http.MethodGet, "/none", nil)).Code)
}

func TestUserIDFromContext(t *testing.T) {
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
    _, ok := UserID(c)
    assert.False(t, ok)
    assert.Equal(t, "guest", userID(c))

    c.Set(CtxUserID, uint64(9))
    id, ok := UserID(c)
    assert.True(t, ok)
    assert.Equal(t, uint64(9), id)
    assert.Equal(t, "9", userID(c))

    c.Set(CtxUserID, "17")
    id, ok = UserID(c)
    assert.True(t, ok)
    assert.Equal(t, uint64(17), id)
}

func TestRequestLogger(t *testing.T) {
    core, logs := observer.New(zap.DebugLevel)
    e := echo.New()
    e.Use(RequestLogger(zap.New(core)))
    e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
    e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusBadGateway, "down") })

    rec := serve(e, httptest.NewRequest(http.MethodGet, "/ok", nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

    req := httptest.NewRequest(http.MethodGet, "/boom", nil)
    req.Header.Set(echo.HeaderXRequestID, "rid-1")
    rec = serve(e, req)
    assert.Equal(t, http.StatusBadGateway, rec.Code)
    assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

    entries := logs.All()
    require.Len(t, entries, 2)
    assert.Equal(t, zap.InfoLevel, entries[0].Level)
    assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
    assert.Equal(t, zap.ErrorLevel, entries[1].Level)
    assert.Equal(t, "rid-1", entries[1].ContextMap()["request_id"])
    assert.Equal(t, "/boom", entries[1].ContextMap()["route"])
}

func TestRedisMiddlewaresPassThroughWithoutClient(t *testing.T) {
    e := echo.New()
    cache := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, zap.NewNop())
    limit := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, zap.NewNop())
    e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "fresh") }, cache, limit)

    for i := 0; i < 3; i++ {
        rec := serve(e, httptest.NewRequest(http.MethodGet, "/x", nil))
        assert.Equal(t, http.StatusOK, rec.Code)
        assert.Equal(t, "fresh", rec.Body.String())
        assert.Empty(t, rec.Header().Get("X-Cache"))
    }

    var p *CachePurger = NewCachePurger(config.CacheConfig{Enabled: true}, nil)
    assert.Nil(t, p)
    assert.NoError(t, p.Purge(context.Background()))
}

func TestCacheEntryRoundTrip(t *testing.T) {
    bs, err := encodeEntry(cachedResponse{
        Status: http.StatusOK,
        Header: http.Header{"Content-Type": {"application/json"}},
        Body:   []byte(`{"count":1}`),
    })
    require.NoError(t, err)

    got, ok := decodeEntry(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, got.Status)
    assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
    assert.Equal(t, `{"count":1}`, string(got.Body))

    _, ok = decodeEntry([]byte("garbage"))
    assert.False(t, ok)
    _, ok = decodeEntry(nil)
    assert.False(t, ok)
}

func TestBodyRecorderOverflow(t *testing.T) {
    rec := httptest.NewRecorder()
    br := &bodyRecorder{ResponseWriter: rec, status: http.StatusOK, limit: 8}
    _, _ = br.Write([]byte("12345"))
    assert.False(t, br.overflowed)
    _, _ = br.Write([]byte("6789"))
    assert.True(t, br.overflowed)
    assert.Zero(t, br.buf.Len())
    assert.Equal(t, "123456789", rec.Body.String())
}

func TestCacheKeyStrategies(t *testing.T) {
    e := echo.New()
    mk := func(q string) echo.Context {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, "/dashboard/last20"+q, nil), httptest.NewRecorder())
        c.SetPath("/dashboard/last20")
        return c
    }
    cfg := config.CacheConfig{Prefix: "mh:cache", KeyStrategy: "route_query"}
    a, b := cacheKey(cfg, mk("")), cacheKey(cfg, mk("?x=1"))
    assert.NotEqual(t, a, b)
    assert.Regexp(t, `^mh:cache:[0-9a-f]{64}$`, a)

    cfg.KeyStrategy = "route"
    assert.Equal(t, cacheKey(cfg, mk("")), cacheKey(cfg, mk("?x=1")))

    cfg.KeyStrategy = "user_route_query"
    c1, c2 := mk(""), mk("")
    c1.Set(CtxUserID, uint64(1))
    c2.Set(CtxUserID, uint64(2))
    assert.NotEqual(t, cacheKey(cfg, c1), cacheKey(cfg, c2))
}

func TestRateKeyStrategies(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/login", nil)
    req.RemoteAddr = "10.0.0.5:5555"
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/login")

    cfg := config.RateLimitConfig{Prefix: "mh:rl", TTL: time.Minute}
    assert.Equal(t, "mh:rl:ip:10.0.0.5:route:POST /login", rateKey(cfg, c))

    cfg.KeyStrategy = "ip"
    assert.Equal(t, "mh:rl:ip:10.0.0.5", rateKey(cfg, c))

    cfg.KeyStrategy = "user"
    assert.Equal(t, "mh:rl:user:guest", rateKey(cfg, c))
    c.Set(CtxUserID, uint64(3))
    assert.Equal(t, "mh:rl:user:3", rateKey(cfg, c))
}

func TestRetryAfterSeconds(t *testing.T) {
    assert.Equal(t, 0, retryAfterSeconds(0))
    assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
    assert.Equal(t, 3, retryAfterSeconds(3*time.Second))
    assert.Equal(t, 4, retryAfterSeconds(3*time.Second+time.Millisecond))
}

func TestReplayKeepsRequestCORSHeaders(t *testing.T) {
    rec := httptest.NewRecorder()
    res := echo.NewResponse(rec, echo.New())
    res.Header().Set(echo.HeaderAccessControlAllowOrigin, "https://b.example")
    res.Header().Set(echo.HeaderVary, echo.HeaderOrigin)

    entry := cachedResponse{
        Status: http.StatusOK,
        Header: http.Header{
            echo.HeaderContentType:              {echo.MIMEApplicationJSON},
            echo.HeaderAccessControlAllowOrigin: {"https://a.example"},
            echo.HeaderVary:                     {"Accept-Encoding"},
            echo.HeaderXRequestID:               {"old-id"},
        },
        Body: []byte(`{"count":0}`),
    }
    require.NoError(t, replay(res, entry))

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "https://b.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
    assert.Equal(t, echo.HeaderOrigin, rec.Header().Get(echo.HeaderVary))
    assert.Empty(t, rec.Header().Get(echo.HeaderXRequestID))
    assert.Equal(t, echo.MIMEApplicationJSON, rec.Header().Get(echo.HeaderContentType))
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
    assert.JSONEq(t, `{"count":0}`, rec.Body.String())
}
