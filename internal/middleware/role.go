package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
)

// RequireRole admits callers whose token role is one of roles, compared
// case-insensitively.  It runs after JWTAuth: a request with no role at all
// never authenticated and gets 401, a known caller with another role 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]struct{}, len(roles))
    for _, r := range roles {
        allowed[strings.ToLower(r)] = struct{}{}
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, _ := c.Get(CtxRole).(string)
            if role == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
            }
            if _, ok := allowed[strings.ToLower(role)]; !ok {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden"})
            }
            return next(c)
        }
    }
}
