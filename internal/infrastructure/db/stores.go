// Package db selects and opens the repository backend named by configuration.
package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/opsdesk/records-dashboard/internal/core/ports"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/db/memory"
	mongodb "github.com/opsdesk/records-dashboard/internal/infrastructure/db/mongo"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/db/sqlite"
	"github.com/opsdesk/records-dashboard/internal/infrastructure/http/handlers"
	"github.com/opsdesk/records-dashboard/internal/pkg/config"
)

// Stores groups the repositories of one backend.
type Stores struct {
	Identities ports.IdentityRepository
	Records    ports.RecordRepository
	Audit      ports.AuditRepository
	// Checks are the readiness probes of the backend, keyed by dependency name.
	Checks map[string]handlers.Check

	close func(context.Context) error
}

// Close releases the backend connection.
func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the backend named by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		return openMongo(ctx, cfg, log)
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLite.Path).Msg("sqlite opened")
		return &Stores{
			Identities: store.Identities(),
			Records:    store.Records(),
			Audit:      store.Audit(),
			Checks:     map[string]handlers.Check{"sqlite": store.Ping},
			close:      func(context.Context) error { return store.Close() },
		}, nil
	default:
		log.Info().Msg("using in-memory store")
		return NewMemory(), nil
	}
}

// NewMemory returns empty process-local repositories.
func NewMemory() *Stores {
	return &Stores{
		Identities: memory.NewIdentityRepository(),
		Records:    memory.NewRecordRepository(),
		Audit:      memory.NewAuditRepository(),
		Checks:     map[string]handlers.Check{},
	}
}

func openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	client, database, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		return nil, err
	}

	identities := mongodb.NewIdentityRepository(database)
	records := mongodb.NewRecordRepository(database)
	audit := mongodb.NewAuditRepository(database)

	for name, ensure := range map[string]func(context.Context) error{
		"identities": identities.EnsureIndexes,
		"records":    records.EnsureIndexes,
		"audit":      audit.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}

	log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")
	return &Stores{
		Identities: identities,
		Records:    records,
		Audit:      audit,
		Checks:     map[string]handlers.Check{"mongo": handlers.MongoCheck(database)},
		close:      client.Disconnect,
	}, nil
}
