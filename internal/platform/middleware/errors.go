package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/clinic/clinic/pkg/apperr"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	ErrorDetail string `json:"error_detail"`
}

// ErrorHandler renders handler errors as {"error_detail": "..."}. Typed
// apperr errors map to their kind's status; echo HTTP errors keep their code;
// anything else is a 500 whose cause is logged but never returned.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, detail := resolve(err)
		if status >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, ErrorResponse{ErrorDetail: detail})
		}
		if werr != nil {
			logger.Warn().Err(werr).Msg("write error response")
		}
	}
}

func resolve(err error) (int, string) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return apperr.HTTPStatus(ae.Kind), apperr.PublicMessage(ae)
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			return he.Code, http.StatusText(he.Code)
		}
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, fmt.Sprint(he.Message)
	}

	return http.StatusInternalServerError, "internal error"
}
