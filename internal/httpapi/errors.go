// Package httpapi wires every commerce-spine component onto an HTTP
// surface, the echo.Echo equivalent of the teacher's router/middleware
// split (internal/router.Router + internal/middleware), grounded on
// internal/auth's existing echo-based session middleware since this
// domain has no stdlib-mux precedent worth keeping.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/floorworks/commerce/internal/domain"
)

// ErrorHandler maps domain.Error codes onto HTTP status codes, per
// spec.md §7's taxonomy table.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			c.JSON(he.Code, map[string]any{"error": he.Message})
			return
		}

		status := statusForCode(domain.ErrorCode(err))
		if status >= 500 {
			log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
		}
		c.JSON(status, map[string]string{"error": domain.ErrorMessage(err)})
	}
}

func statusForCode(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EUPSTREAM:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
