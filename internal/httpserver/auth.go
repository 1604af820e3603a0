package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scorewire/cricket-api/internal/logging"
	"github.com/scorewire/cricket-api/internal/middleware"
	"github.com/scorewire/cricket-api/internal/models"
	"github.com/scorewire/cricket-api/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		UserID   string `json:"userId"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.ErrMissingFields.Error())
	}

	user, err := h.Svc.Register(ctx, req.Name, req.Email, req.UserID, req.Password)
	if err != nil {
		return httpError(err)
	}

	return respondData(c, http.StatusOK, echo.Map{
		"user":    user,
		"message": "user created successfully",
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		EmailOrUserID string `json:"emailOrUserId"`
		Password      string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, service.ErrMissingFields.Error())
	}

	res, err := h.Svc.Login(ctx, req.EmailOrUserID, req.Password)
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(createCookie("accessToken", res.AccessToken, "/", res.AccessExp))
	c.SetCookie(createCookie("refreshToken", res.RefreshToken, "/", res.RefreshExp))

	return respondData(c, http.StatusOK, echo.Map{
		"user":         res.User,
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	})
}

func (h *AuthHTTP) SendVerificationMail(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := c.Get(middleware.UserContextKey).(*models.User)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no token provided")
	}

	if err := h.Svc.SendVerificationMail(ctx, user); err != nil {
		// A settled-but-failed dispatch is reported inside a 200: the
		// token is stored and the user can retry once it expires.
		if errors.Is(err, service.ErrMailDispatch) {
			return respondData(c, http.StatusOK, echo.Map{
				"message": service.ErrMailDispatch.Error(),
			})
		}
		return httpError(err)
	}

	return respondData(c, http.StatusOK, echo.Map{
		"user":    user,
		"message": "verification mail sent",
	})
}

func (h *AuthHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.Svc.Verify(ctx, c.Param("token")); err != nil {
		return httpError(err)
	}

	return respondData(c, http.StatusOK, echo.Map{
		"message": "user verified successfully",
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	refreshCookie, err := c.Cookie("refreshToken")
	if err != nil || refreshCookie.Value == "" {
		return echo.NewHTTPError(http.StatusBadRequest, service.ErrRefreshMissing.Error())
	}

	if err := h.Svc.Logout(ctx, refreshCookie.Value); err != nil {
		return httpError(err)
	}

	c.SetCookie(deleteCookie("accessToken", "/"))
	c.SetCookie(deleteCookie("refreshToken", "/"))

	return respondData(c, http.StatusOK, echo.Map{
		"message": "user logged out successfully",
	})
}

func (h *AuthHTTP) RefreshAccessToken(c echo.Context) error {
	ctx := c.Request().Context()

	// Cookie first, request body as the fallback.
	var token string
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.Bind(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, service.ErrRefreshMissing.Error())
	}

	res, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		return httpError(err)
	}

	c.SetCookie(createCookie("accessToken", res.AccessToken, "/", res.AccessExp))
	c.SetCookie(createCookie("refreshToken", res.RefreshToken, "/", res.RefreshExp))

	return respondData(c, http.StatusOK, echo.Map{
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
		"message":      "access token refreshed successfully",
	})
}
