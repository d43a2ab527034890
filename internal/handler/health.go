package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers load balancer and monitoring probes with a plain
// "ok" and a 200 status.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
