package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scorewire/cricket-api/internal/middleware"
)

type Deps struct {
	AuthHandler   *AuthHTTP
	PlayerHandler *PlayerHTTP
	Guard         *middleware.SessionGuard

	// SearchEnabled mounts /players/search; off when ES is not
	// configured.
	SearchEnabled bool
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = HTTPErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.GET("/verify/:token", d.AuthHandler.Verify)
	auth.POST("/refreshAccessToken", d.AuthHandler.RefreshAccessToken)

	private := auth.Group("")
	private.Use(d.Guard.RequireAuth)
	private.POST("/sendVerificationMail", d.AuthHandler.SendVerificationMail)
	private.POST("/logout", d.AuthHandler.Logout)

	e.GET("/player/:id", d.PlayerHandler.Get)
	if d.SearchEnabled {
		e.GET("/players/search", d.PlayerHandler.Search)
	}
}
