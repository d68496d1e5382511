package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errorMapping pairs a domain error kind with its HTTP status. When message is
// empty the error text itself is returned, so wrapped details such as the
// rejected status value reach the client.
type errorMapping struct {
	kind    error
	status  int
	message string
}

// Order matters: the first matching kind wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid username or password"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "not authenticated"},
	{domain.ErrUnauthorized, http.StatusForbidden, "unauthorized access"},
	{domain.ErrSelfDeletion, http.StatusConflict, "cannot delete your own account"},
	{domain.ErrHandleTaken, http.StatusConflict, "username already exists"},
	{domain.ErrNotFound, http.StatusNotFound, ""},
	{domain.ErrInvalidStatus, http.StatusUnprocessableEntity, ""},
	{domain.ErrInvalidRole, http.StatusUnprocessableEntity, ""},
	{domain.ErrUsernameRequired, http.StatusUnprocessableEntity, ""},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Domain errors
// get their mapped status; anything unknown is logged and reported as a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.kind) {
			continue
		}
		if m.message == "" {
			return m.status, err.Error()
		}
		return m.status, m.message
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
