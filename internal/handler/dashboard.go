package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/maternal-health/internal/repository"
)

// DashboardHandler serves the field worker's recent-records screen.
type DashboardHandler struct {
    Records *repository.MaternalRepo
    Cache   cachePurger
    Log     *zap.Logger
}

func NewDashboardHandler(records *repository.MaternalRepo, cache cachePurger, log *zap.Logger) *DashboardHandler {
    return &DashboardHandler{Records: records, Cache: cache, Log: log}
}

// Last20 lists the newest questionnaires.
// GET /dashboard/last20
func (h *DashboardHandler) Last20(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rows, err := h.Records.ListRecent(ctx, repository.DefaultRecentLimit)
    if err != nil {
        h.Log.Error("dashboard last20 failed", zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Database error", "details": err.Error()})
    }
    return c.JSON(http.StatusOK, echo.Map{"data": rows, "count": len(rows)})
}

// MarkSurveyed flags one questionnaire as followed up.
// PATCH /dashboard/survey/:id
func (h *DashboardHandler) MarkSurveyed(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Records.MarkSurveyed(ctx, id); err != nil {
        h.Log.Error("mark surveyed failed", zap.Uint64("id", id), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Database error"})
    }
    if h.Cache != nil {
        if err := h.Cache.Purge(ctx); err != nil {
            h.Log.Warn("dashboard cache purge failed", zap.Error(err))
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "id": id})
}
