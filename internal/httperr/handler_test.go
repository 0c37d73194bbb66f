package httperr

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	NewHTTPErrorHandler(zerolog.Nop())(err, c)
	return rec
}

func TestHandlerRendersAppError(t *testing.T) {
	rec := render(t, Authentication("missing access token"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t,
		`{"errors":[{"type":"AuthenticationError","message":"missing access token","path":"","location":""}]}`,
		rec.Body.String())
}

func TestHandlerHidesInternalCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:3306: connection refused")
	rec := render(t, Internal(cause))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestHandlerWrapsUnknownErrors(t *testing.T) {
	rec := render(t, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHandlerMapsEchoNotFound(t *testing.T) {
	rec := render(t, echo.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NotFoundError")
}

func TestValidationEnvelope(t *testing.T) {
	err := Validation([]FieldError{
		{Type: "field", Message: "email must be a valid email", Path: "email", Location: "body"},
	})
	rec := render(t, err)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"errors":[{"type":"field","message":"email must be a valid email","path":"email","location":"body"}]}`,
		rec.Body.String())
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	assert.ErrorIs(t, Internal(cause), cause)
}
