package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/scorewire/cricket-api/internal/service"
)

type PlayerHTTP struct {
	Svc *service.PlayerService
}

func (h *PlayerHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	player, err := h.Svc.Get(ctx, id)
	if err != nil {
		return httpError(err)
	}

	return respondData(c, http.StatusOK, echo.Map{"player": player})
}

func (h *PlayerHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	total, players, err := h.Svc.Search(ctx, q, page, size)
	if err != nil {
		return httpError(err)
	}

	return respondData(c, http.StatusOK, echo.Map{
		"total":   total,
		"players": players,
	})
}
