package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/opsdesk/records-dashboard/internal/core/domain"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
)

// Auth validates a bearer token, when one is sent, and attaches the session
// it carries to the request context. Requests without an Authorization header
// pass through anonymously; RequireSession rejects them where needed.
func Auth(tokens ports.TokenCodec, revocations ports.Revocations, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			session, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			revoked, err := revocations.IsRevoked(c.Request().Context(), session.TokenID)
			if err != nil {
				log.Error().Err(err).Str("token_id", session.TokenID).Msg("revocation check failed")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session check unavailable")
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "session ended")
			}

			req := c.Request()
			c.SetRequest(req.WithContext(domain.WithSession(req.Context(), session)))
			return next(c)
		}
	}
}
