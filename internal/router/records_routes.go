package router

import (
	"github.com/iliyamo/maternal-health/internal/handler"
	"github.com/labstack/echo/v4"
)

// RegisterMaternal registers the questionnaire endpoints.
func RegisterMaternal(e *echo.Echo, m *handler.MaternalHandler, protect []echo.MiddlewareFunc) {
	g := e.Group("/maternal-health", protect...)
	g.POST("", m.Submit)
	g.GET("/:id", m.Get)
}

// RegisterDashboard registers the recent-records screen.  cache wraps the
// read only; writes purge it from the handler.
func RegisterDashboard(e *echo.Echo, d *handler.DashboardHandler, protect []echo.MiddlewareFunc, cache echo.MiddlewareFunc) {
	g := e.Group("/dashboard", protect...)
	g.GET("/last20", d.Last20, cache)
	g.PATCH("/survey/:id", d.MarkSurveyed)
}

// RegisterPostDelivery registers the follow-up form endpoints.
func RegisterPostDelivery(e *echo.Echo, p *handler.PostDeliveryHandler, protect []echo.MiddlewareFunc) {
	g := e.Group("/post-delivery", protect...)
	g.POST("", p.Create)
	g.GET("", p.List)
	g.GET("/:id", p.Get)
}
