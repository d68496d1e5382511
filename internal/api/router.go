package api

import (
	"net"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/opsdesk/records-dashboard/docs"
	"github.com/opsdesk/records-dashboard/internal/api/handler"
	"github.com/opsdesk/records-dashboard/internal/api/middleware"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
	"github.com/opsdesk/records-dashboard/internal/core/service"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Log          zerolog.Logger
	Tokens       ports.TokenCodec
	Revocations  ports.Revocations
	Auth         ports.AuthService
	Directory    ports.DirectoryService
	Records      ports.RecordService
	Audit        ports.AuditService
	Guard        service.Guard
	LoginLimiter *middleware.LoginLimiter
	// TrustedProxies may set X-Forwarded-For; with none the remote address is the client.
	TrustedProxies []*net.IPNet
	Checks         map[string]handlers.Check
	// Registry receives the HTTP metrics; nil selects the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()
	e.IPExtractor = clientIP(d.TrustedProxies)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	promMiddleware, promHandler := httpMetrics(d.Registry)
	e.Use(promMiddleware)

	// --- Observability (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", promHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Everything below may carry a bearer token.
	authMiddleware := middleware.Auth(d.Tokens, d.Revocations, d.Log)
	requireSession := middleware.RequireSession(d.Guard)
	requireAdmin := middleware.RequireAdmin(d.Guard)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	auth := e.Group("/auth", authMiddleware)
	if d.LoginLimiter != nil {
		auth.POST("/login", authHandler.Login, d.LoginLimiter.Middleware())
	} else {
		auth.POST("/login", authHandler.Login)
	}
	auth.POST("/logout", authHandler.Logout, requireSession)
	auth.GET("/me", authHandler.Me, requireSession)

	v1 := e.Group("/v1", authMiddleware)

	// --- Route guard ---
	viewHandler := handler.NewViewHandler(d.Guard)
	v1.GET("/views/:view", viewHandler.Decide)

	// --- Records ---
	recordHandler := handler.NewRecordHandler(d.Records)
	records := v1.Group("/records", requireSession)
	records.GET("", recordHandler.List)
	records.POST("", recordHandler.Create)
	records.GET("/:id", recordHandler.Get)
	records.PATCH("/:id/status", recordHandler.UpdateStatus)

	// --- Admin ---
	adminHandler := handler.NewAdminHandler(d.Directory, d.Records, d.Audit)
	admin := v1.Group("/admin", requireAdmin)
	admin.GET("/identities", adminHandler.ListIdentities)
	admin.POST("/identities", adminHandler.AddIdentity)
	admin.GET("/identities/record-counts", adminHandler.RecordCounts)
	admin.DELETE("/identities/:id", adminHandler.RemoveIdentity)
	admin.GET("/audit", adminHandler.Audit)

	return e
}

// clientIP decides what c.RealIP reports. Forwarding headers are honored
// only when they arrive through a trusted proxy.
func clientIP(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func httpMetrics(reg *prometheus.Registry) (echo.MiddlewareFunc, echo.HandlerFunc) {
	if reg == nil {
		return echoprometheus.NewMiddleware("dashboard_http"), echoprometheus.NewHandler()
	}
	mw := echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "dashboard_http",
		Registerer: reg,
	})
	h := echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
	return mw, h
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
