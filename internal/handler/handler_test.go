package handler

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/maternal-health/internal/config"
)

func testConfig() config.Config {
    return config.Config{JWTSecret: "test-secret", AccessTTLMin: 10, RefreshTTLDays: 1, BcryptCost: 4}
}

// call runs h against a fresh context.  params are name/value pairs for
// path parameters; uid, when non-zero, plays the part of the JWT middleware.
func call(t *testing.T, h echo.HandlerFunc, method, target, body string, uid uint64, params ...string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, target, nil)
    } else {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    var names, values []string
    for i := 0; i+1 < len(params); i += 2 {
        names = append(names, params[i])
        values = append(values, params[i+1])
    }
    if len(names) > 0 {
        c.SetParamNames(names...)
        c.SetParamValues(values...)
    }
    if uid != 0 {
        c.Set("user_id", uid)
    }
    require.NoError(t, h(c))
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var out map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    return out
}
