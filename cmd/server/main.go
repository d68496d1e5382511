package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsdesk/records-dashboard/internal/api"
	"github.com/opsdesk/records-dashboard/internal/api/middleware"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
	"github.com/opsdesk/records-dashboard/internal/core/service"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/db"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/db/memory"
	redisdb "github.com/opsdesk/records-dashboard/internal/infrastructure/db/redis"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/http/handlers"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/latency"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/queue"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/seed"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/token"
	"github.com/opsdesk/records-dashboard/internal/pkg/config"
	"github.com/opsdesk/records-dashboard/pkg/logger"
)

const (
	devJWTSecret    = "dev-only-secret-change-me"
	shutdownTimeout = 15 * time.Second
	auditWorkers    = 4
)

// @title       Records Dashboard API
// @version     1.0
// @description Role-aware records dashboard with an admin identity directory.
// @BasePath    /
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "records-dashboard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadContext(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "records-dashboard",
	})

	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		log.Warn().Msg("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}

	st, err := db.Open(ctx, cfg, logger.Component("store"))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	if err := seed.Load(ctx, st.Identities, st.Records, cfg.Auth.SeedPassword, cfg.Auth.BcryptCost, logger.Component("seed")); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	var revocations ports.Revocations = memory.NewRevocations()
	if cfg.Redis.Enabled {
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer client.Close()
		revocations = redisdb.NewRevocations(client)
		st.Checks["redis"] = handlers.RedisCheck(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	var delay ports.Latency = latency.Nop{}
	if cfg.Latency.Enabled {
		delay = latency.NewSimulator(cfg.Latency.Scale)
	}

	auditService := service.NewAuditService(st.Audit, logger.Component("audit"))
	dispatcher := queue.NewDispatcher(auditWorkers, auditService, logger.Component("audit-queue"))
	// Workers outlive the signal context so Close can drain them.
	dispatcher.Start(context.WithoutCancel(ctx))

	trusted, err := cfg.Auth.TrustedNets()
	if err != nil {
		return err
	}

	tokens := token.NewCodec(secret, cfg.TokenTTL)
	authenticator := service.NewAuthenticator(st.Identities)
	deps := api.Deps{
		Log:            log,
		Tokens:         tokens,
		Revocations:    revocations,
		Auth:           service.NewAuthService(authenticator, tokens, revocations, delay, logger.Component("auth")),
		Directory:      service.NewDirectoryService(st.Identities, dispatcher, delay, cfg.Auth.BcryptCost, logger.Component("directory")),
		Records:        service.NewRecordService(st.Records, st.Identities, dispatcher, delay, logger.Component("records")),
		Audit:          auditService,
		Guard:          service.NewGuard(),
		LoginLimiter:   middleware.NewLoginLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst, logger.Component("ratelimit")),
		TrustedProxies: trusted,
		Checks:         st.Checks,
	}

	e := api.NewRouter(deps)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("backend", cfg.StoreBackend).
			Bool("latency", cfg.Latency.Enabled).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	dispatcher.Close()

	log.Info().Msg("server stopped")
	return nil
}
