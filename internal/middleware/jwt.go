// Package middleware holds the Echo middleware for authentication, the
// dashboard response cache and the credential rate limiter.
package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/maternal-health/internal/utils"
)

// Context keys set by JWTAuth.
const (
    CtxUserID   = "user_id"  // uint64
    CtxRole     = "role"     // string
    CtxEmail    = "email"    // string
    CtxUsername = "username" // string
    CtxClaims   = "claims"   // *utils.Claims
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// copies the token's identity into the request context.  The scheme is
// matched case-insensitively.  Handlers read the caller via
// `c.Get("user_id")` (uint64) and `c.Get("role")`.  An empty secret is a
// deployment error: it is logged and every request gets 500.
func JWTAuth(secret string, log *zap.Logger) echo.MiddlewareFunc {
    if log == nil {
        log = zap.NewNop()
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearerToken(c.Request().Header.Get("Authorization"))
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing or malformed Authorization header"})
            }
            if secret == "" {
                log.Error("jwt secret not configured", zap.String("path", c.Path()))
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server misconfiguration"})
            }

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
            }

            c.Set(CtxUserID, claims.Identity.ID)
            c.Set(CtxRole, claims.Role)
            c.Set(CtxEmail, claims.Email)
            c.Set(CtxUsername, claims.Username)
            c.Set(CtxClaims, claims)
            return next(c)
        }
    }
}

// bearerToken splits "<scheme> <token>" and accepts any casing of "bearer".
func bearerToken(header string) (string, bool) {
    scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
    token = strings.TrimSpace(token)
    if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
        return "", false
    }
    return token, true
}
