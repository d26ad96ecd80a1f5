package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/maternal-health/internal/artifact"
)

// PredictionsHandler serves stored prediction documents.
type PredictionsHandler struct {
    Store artifact.Store
    Log   *zap.Logger
}

func NewPredictionsHandler(store artifact.Store, log *zap.Logger) *PredictionsHandler {
    return &PredictionsHandler{Store: store, Log: log}
}

// Get streams prediction_<id>.json.
// GET /predictions/:file
func (h *PredictionsHandler) Get(c echo.Context) error {
    name := c.Param("file")
    rc, err := h.Store.Open(c.Request().Context(), name)
    if errors.Is(err, artifact.ErrNotFound) || errors.Is(err, artifact.ErrInvalidName) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Not Found", "path": c.Request().URL.Path})
    }
    if err != nil {
        h.Log.Error("open prediction artifact failed", zap.String("file", name), zap.Error(err))
        return serverError(c, http.StatusInternalServerError, err)
    }
    defer rc.Close()

    c.Response().Header().Set("Cache-Control", "public, max-age=300")
    return c.Stream(http.StatusOK, echo.MIMEApplicationJSON, rc)
}
