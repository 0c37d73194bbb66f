package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type envelope struct {
	Errors []FieldError `json:"errors"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that funnels every
// error escaping a handler into the shared envelope. Nothing propagates past
// the HTTP boundary uncaught: unknown errors become 500s with a generic
// message, with the cause logged server-side only.
func NewHTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *Error
		switch {
		case errors.As(err, &appErr):
			// already shaped
		case errors.Is(err, echo.ErrNotFound):
			appErr = NotFound("resource not found")
		case errors.Is(err, echo.ErrMethodNotAllowed):
			appErr = &Error{
				Status: http.StatusMethodNotAllowed,
				Kind:   "MethodNotAllowedError",
				Fields: []FieldError{{Type: "MethodNotAllowedError", Message: "method not allowed"}},
			}
		default:
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) && httpErr.Code < http.StatusInternalServerError {
				appErr = &Error{
					Status: httpErr.Code,
					Kind:   http.StatusText(httpErr.Code),
					Fields: []FieldError{{Type: http.StatusText(httpErr.Code), Message: messageOf(httpErr)}},
				}
			} else {
				appErr = Internal(err)
			}
		}

		evt := logger.Warn()
		if appErr.Status >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		evt.Err(err).
			Int("status", appErr.Status).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("request failed")

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.Status)
			return
		}
		_ = c.JSON(appErr.Status, envelope{Errors: appErr.Fields})
	}
}

func messageOf(he *echo.HTTPError) string {
	if s, ok := he.Message.(string); ok {
		return s
	}
	return http.StatusText(he.Code)
}
