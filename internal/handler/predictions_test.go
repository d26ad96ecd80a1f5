package handler

import (
    "context"
    "errors"
    "net/http"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/maternal-health/internal/artifact"
    "github.com/iliyamo/maternal-health/internal/predictor"
    "github.com/iliyamo/maternal-health/internal/testutil"
)

func TestPredictionsGet(t *testing.T) {
    store, err := artifact.NewFileStore(t.TempDir())
    require.NoError(t, err)
    _, err = store.Save(context.Background(), 4, map[string]any{"risk": []float64{0.4}})
    require.NoError(t, err)
    h := NewPredictionsHandler(store, zap.NewNop())

    rec := call(t, h.Get, http.MethodGet, "/predictions/prediction_4.json", "", 0, "file", "prediction_4.json")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
    assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
    assert.Equal(t, []any{0.4}, decode(t, rec)["risk"])

    for _, name := range []string{"prediction_5.json", "..%2Fsecret.json", "prediction_0.json"} {
        rec = call(t, h.Get, http.MethodGet, "/predictions/"+name, "", 0, "file", name)
        assert.Equal(t, http.StatusNotFound, rec.Code, name)
        assert.Equal(t, "Not Found", decode(t, rec)["error"])
    }
}

type stubProbe struct {
    health *predictor.Health
    err    error
}

func (s stubProbe) Health(context.Context) (*predictor.Health, error) { return s.health, s.err }

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }

func TestHealthEndpoints(t *testing.T) {
    rec := call(t, Health, http.MethodGet, "/healthz", "", 0)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())

    h := NewHealthHandler(testutil.NewDB(t), nil)
    rec = call(t, h.Root, http.MethodGet, "/", "", 0)
    out := decode(t, rec)
    assert.Equal(t, true, out["ok"])
    assert.NotEmpty(t, out["ts"])

    rec = call(t, h.Ready, http.MethodGet, "/ready", "", 0)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", decode(t, rec)["database"])
}

func TestReadyReportsDependencies(t *testing.T) {
    h := NewHealthHandler(stubPinger{err: errors.New("connection refused")}, stubProbe{err: errors.New("dial tcp: refused")})
    rec := call(t, h.Ready, http.MethodGet, "/ready", "", 0)
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
    out := decode(t, rec)
    assert.Equal(t, "connection refused", out["database"])
    assert.Equal(t, "unreachable", out["predictor"].(map[string]any)["status"])

    h = NewHealthHandler(stubPinger{}, stubProbe{health: &predictor.Health{Status: "ok"}})
    rec = call(t, h.Ready, http.MethodGet, "/ready", "", 0)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", decode(t, rec)["predictor"].(map[string]any)["status"])
}
