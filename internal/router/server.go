package router

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/maternal-health/internal/config"
	"github.com/iliyamo/maternal-health/internal/handler"
	"github.com/iliyamo/maternal-health/internal/middleware"
)

// Deps is everything New needs to assemble the HTTP server.  Redis may be
// nil, which turns the cache and the rate limiter into pass-throughs.
type Deps struct {
	Cfg       config.Config
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Log       *zap.Logger

	Auth         *handler.AuthHandler
	Maternal     *handler.MaternalHandler
	Dashboard    *handler.DashboardHandler
	PostDelivery *handler.PostDeliveryHandler
	Predictions  *handler.PredictionsHandler
	Health       *handler.HealthHandler
}

// New builds the Echo instance with the global middleware stack and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(d.Log)

	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins(d.Cfg.CORSOrigins),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	if d.Cfg.BodyLimit != "" {
		e.Use(echomw.BodyLimit(d.Cfg.BodyLimit))
	}
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))

	protect := Protect(d.Cfg.JWTSecret, d.Cfg.DisableAuth, d.Log)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)

	RegisterRoutes(e, d.Health, d.Predictions)
	RegisterAuth(e, d.Auth, protect, limit)
	RegisterMaternal(e, d.Maternal, protect)
	RegisterDashboard(e, d.Dashboard, protect, cache)
	RegisterPostDelivery(e, d.PostDelivery, protect)
	return e
}

func origins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// errorHandler answers unknown routes with {"error":"Not Found","path"}.
// Other framework errors keep their status; 5xx bodies never carry the
// underlying error.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := "Server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if code < http.StatusInternalServerError {
				msg = http.StatusText(code)
				if m, ok := he.Message.(string); ok && m != "" {
					msg = m
				}
			}
		}

		var body any = echo.Map{"error": msg}
		switch {
		case code == http.StatusNotFound:
			body = echo.Map{"error": "Not Found", "path": c.Request().URL.Path}
		case code >= http.StatusInternalServerError:
			log.Error("unhandled error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.Warn("writing error response failed", zap.Error(err))
		}
	}
}
