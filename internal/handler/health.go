package handler // declare the package name; contains HTTP handlers

import (
    "context"  // bounded probes
    "net/http" // net/http provides status codes and response helpers
    "time"     // probe timeouts and the root timestamp

    "github.com/labstack/echo/v4" // echo is the web framework used for this project

    "github.com/iliyamo/maternal-health/internal/predictor"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// PredictorProbe is satisfied by *predictor.Client.
type PredictorProbe interface {
    Health(ctx context.Context) (*predictor.Health, error)
}

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
    DB        Pinger
    Predictor PredictorProbe // optional
}

func NewHealthHandler(db Pinger, p PredictorProbe) *HealthHandler {
    return &HealthHandler{DB: db, Predictor: p}
}

// Root answers {ok, ts} the way the mobile client's connectivity check
// expects.
func (h *HealthHandler) Root(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "ts": time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")})
}

// Health is a simple health‑check endpoint used by load balancers and
// monitoring systems to verify that the process is running.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports 200 when the database answers a ping and 503 otherwise.
// The prediction service is reported but does not affect the status.
func (h *HealthHandler) Ready(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    status := http.StatusOK
    out := echo.Map{"status": "ready", "database": "ok"}
    if err := h.DB.PingContext(ctx); err != nil {
        status = http.StatusServiceUnavailable
        out["status"] = "unavailable"
        out["database"] = err.Error()
    }

    if h.Predictor != nil {
        ph, err := h.Predictor.Health(ctx)
        switch {
        case err != nil:
            out["predictor"] = echo.Map{"status": "unreachable", "detail": err.Error()}
        default:
            out["predictor"] = ph
        }
    }
    return c.JSON(status, out)
}
