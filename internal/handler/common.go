package handler // handler defines http handlers

import (
    "context" // context for the cache purge hook

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/maternal-health/internal/middleware"
)

// cachePurger drops cached dashboard responses after a write.
type cachePurger interface {
    Purge(ctx context.Context) error
}

// getUserID reports false when the route ran without authentication
// (DISABLE_AUTH=1).
func getUserID(c echo.Context) (uint64, bool) {
    return middleware.UserID(c)
}

// submitter returns the caller's id for the submitted_by column.
func submitter(c echo.Context) *uint64 {
    if id, ok := getUserID(c); ok {
        return &id
    }
    return nil
}

func serverError(c echo.Context, status int, err error) error {
    return c.JSON(status, echo.Map{"error": "Server error", "detail": err.Error()})
}
