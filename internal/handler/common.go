// Package handler defines the HTTP handlers of the service. Handlers
// parse and trim request payloads, call into the authoring pipeline
// or repositories, and translate sentinel errors into HTTP status
// codes. Identity has already been verified by the JWT middleware;
// handlers only read the user id it stored in the request context.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id set by the JWT middleware and
// converts it to uint64. JWT numeric claims arrive as float64 after
// JSON decoding, so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}
