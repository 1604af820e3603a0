package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scorewire/cricket-api/internal/logging"
	"github.com/scorewire/cricket-api/internal/service"
)

const internalErrorMessage = "something went wrong"

// respondData wraps every success payload in the {"data": ...} envelope.
func respondData(c echo.Context, code int, payload any) error {
	return c.JSON(code, echo.Map{"data": payload})
}

// HTTPErrorHandler renders errors in the same envelope:
// {"data": {"error": "..."}}. Internal details never reach the client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := internalErrorMessage

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		}
	} else {
		logging.FromContext(c.Request().Context()).Error("internal_error", "error", err)
	}

	if writeErr := c.JSON(code, echo.Map{"data": echo.Map{"error": msg}}); writeErr != nil {
		c.Logger().Error(writeErr)
	}
}

var businessErrors = []error{
	service.ErrMissingFields,
	service.ErrInvalidEmail,
	service.ErrEmailTaken,
	service.ErrUserIDTaken,
	service.ErrUserNotFound,
	service.ErrInvalidCredentials,
	service.ErrTokenNotFound,
	service.ErrTokenExpired,
	service.ErrAlreadyVerified,
	service.ErrRefreshMissing,
	service.ErrInvalidRefresh,
	service.ErrPlayerNotFound,
}

// httpError maps anticipated business-rule violations to a 400 with the
// rule's message; everything else stays opaque.
func httpError(err error) error {
	var rl *service.RateLimitedError
	if errors.As(err, &rl) {
		return echo.NewHTTPError(http.StatusBadRequest, rl.Error())
	}
	for _, be := range businessErrors {
		if errors.Is(err, be) {
			return echo.NewHTTPError(http.StatusBadRequest, be.Error())
		}
	}
	return err
}
