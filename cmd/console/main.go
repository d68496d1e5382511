package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/opsdesk/records-dashboard/internal/console"
	"github.com/opsdesk/records-dashboard/internal/core/ports"
	"github.com/opsdesk/records-dashboard/internal/core/service"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/db"
	redisdb "github.com/opsdesk/records-dashboard/internal/infrastructure/db/redis"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/latency"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/queue"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/seed"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/session"
	"github.com/opsdesk/records-dashboard/internal/pkg/config"
	"github.com/opsdesk/records-dashboard/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard console: %v\n", err)
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

	// Logs go to stderr so they do not interleave with command output.
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Service: "records-console",
		Output:  os.Stderr,
	})

	st, err := db.Open(ctx, cfg, logger.Component("store"))
	if err != nil {
		return err
	}
	defer func() { _ = st.Close(context.Background()) }()

	if err := seed.Load(ctx, st.Identities, st.Records, cfg.Auth.SeedPassword, cfg.Auth.BcryptCost, logger.Component("seed")); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	var slot ports.SessionSlot = session.NewFileSlot(cfg.Session.File)
	if cfg.Session.Slot == config.SlotRedis {
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer client.Close()
		slot = redisdb.NewSessionSlot(client, "console")
	}

	var delay ports.Latency = latency.Nop{}
	if cfg.Latency.Enabled {
		delay = latency.NewSimulator(cfg.Latency.Scale)
	}

	auditService := service.NewAuditService(st.Audit, logger.Component("audit"))
	dispatcher := queue.NewDispatcher(1, auditService, logger.Component("audit-queue"))
	dispatcher.Start(context.WithoutCancel(ctx))
	defer dispatcher.Close()

	identities := st.Identities
	store := service.NewSessionStore(ctx, service.NewAuthenticator(identities), slot, delay, logger.Component("session"))
	shell := console.NewShell(
		store,
		service.NewDirectoryService(identities, dispatcher, delay, cfg.Auth.BcryptCost, logger.Component("directory")),
		service.NewRecordService(st.Records, identities, dispatcher, delay, logger.Component("records")),
		service.NewGuard(),
		os.Stdout,
		log,
	)

	fmt.Println("records dashboard console, type help for commands")
	return shell.Run(ctx, os.Stdin)
}
