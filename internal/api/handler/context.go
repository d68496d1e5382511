package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opsdesk/records-dashboard/internal/api/metrics"
	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

// ctxSession returns the session attached to the request by the Auth
// middleware and fails fast with 401 when there is none.
func ctxSession(c echo.Context) (domain.Session, error) {
	s, ok := domain.SessionFromContext(c.Request().Context())
	if !ok || s.Identity.ID == "" {
		return domain.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return s, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
// Malformed payloads yield 400, failed validation 422.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

// observe records the duration of a service call.
func observe(op ports.Operation, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.OperationDuration.WithLabelValues(string(op), outcome).Observe(time.Since(start).Seconds())
}
