package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/opsdesk/records-dashboard/internal/api/metrics"
)

// limiterIdleTTL is how long an unused per-client limiter is kept.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginLimiter throttles login attempts per client IP.
type LoginLimiter struct {
	rate  rate.Limit
	burst int
	log   zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*clientLimiter
	now      func() time.Time
}

// NewLoginLimiter allows perSecond attempts per client with the given burst.
func NewLoginLimiter(perSecond float64, burst int, log zerolog.Logger) *LoginLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &LoginLimiter{
		rate:     rate.Limit(perSecond),
		burst:    burst,
		log:      log,
		limiters: make(map[string]*clientLimiter),
		now:      time.Now,
	}
}

// Middleware answers 429 with a Retry-After header once a client's budget is spent.
func (l *LoginLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !l.limiterFor(ip).Allow() {
				metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
				l.log.Warn().Str("client_ip", ip).Msg("login rate limit exceeded")

				retry := 1
				if l.rate > 0 {
					retry = int(1/float64(l.rate)) + 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts")
			}
			return next(c)
		}
	}
}

// Len returns the number of tracked clients.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *LoginLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cl, ok := l.limiters[key]; ok {
		cl.lastAccess = now
		return cl.limiter
	}

	for k, cl := range l.limiters {
		if now.Sub(cl.lastAccess) > limiterIdleTTL {
			delete(l.limiters, k)
		}
	}

	cl := &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst), lastAccess: now}
	l.limiters[key] = cl
	return cl.limiter
}
