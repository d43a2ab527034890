package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/rstolbov/dictation-backend/internal/handler"
	"github.com/rstolbov/dictation-backend/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication: the
// health check and the static directory pronunciation audio is served
// from.
func RegisterRoutes(e *echo.Echo, uploadsPrefix, uploadsDir string) {
	e.GET("/healthz", handler.Health)
	e.Static(uploadsPrefix, uploadsDir)
}

// RegisterAuth registers the session endpoints. Register, login,
// refresh and logout live under /v1/auth without a JWT; the rate
// limiter sits in front of them because they are the endpoints worth
// brute-forcing. /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterDictations registers the authoring, practice and word
// endpoints. Everything requires a valid access token; the public
// listing additionally goes through the Redis response cache since it
// is identical for every caller.
func RegisterDictations(e *echo.Echo, d *handler.DictationHandler, w *handler.WordHandler, jwtSecret string, cache, limit echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("USER", "ADMIN"))
	g.Use(limit)

	g.POST("/dictations", d.Create)
	g.POST("/dictations/full", d.CreateWithWords)
	g.GET("/dictations", d.GetAll)
	g.GET("/dictations/public", d.GetPublic, cache)
	g.GET("/dictations/history", d.GetHistory)
	g.GET("/dictations/:id", d.GetOne)
	g.PATCH("/dictations/:id", d.Update)
	g.DELETE("/dictations/:id", d.Delete)
	g.POST("/dictations/complete", d.Complete)

	g.POST("/words", w.Create)
	g.GET("/words", w.List)
	g.DELETE("/words/:id", w.Delete)
}
