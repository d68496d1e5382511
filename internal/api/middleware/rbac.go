package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
)

// AccessGuard reports whether the session on ctx may proceed.
type AccessGuard interface {
	RequireAuthenticated(ctx context.Context) error
	RequireAdmin(ctx context.Context) error
}

// RequireSession rejects anonymous requests with the guard's error.
func RequireSession(guard AccessGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := guard.RequireAuthenticated(c.Request().Context()); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireAdmin rejects anonymous and non-admin requests.
func RequireAdmin(guard AccessGuard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := guard.RequireAdmin(c.Request().Context()); err != nil {
				return err
			}
			return next(c)
		}
	}
}
