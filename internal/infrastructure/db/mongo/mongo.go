// Package mongo stores identities, records and the audit trail in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	appName        = "records-dashboard"

	duplicateKeyCode = 11000
)

type Config struct {
	URI      string
	Database string
	// MaxPoolSize of 0 keeps the driver default.
	MaxPoolSize uint64
	Timeout     time.Duration
}

// Connect dials the deployment, waits for a primary to answer a ping and
// returns the client together with the configured database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.Database == "" {
		return nil, nil, errors.New("mongo: database name is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect %s: %w", cfg.Database, err)
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("mongo ping %s: %w", cfg.Database, err)
	}

	return client, client.Database(cfg.Database), nil
}

// duplicateKeyIndex names the unique index a failed write collided with, or
// returns "" when err is not a duplicate key error.
func duplicateKeyIndex(err error) string {
	var we mongo.WriteException
	if !errors.As(err, &we) {
		return ""
	}
	for _, e := range we.WriteErrors {
		if e.Code != duplicateKeyCode {
			continue
		}
		// E11000 duplicate key error collection: db.coll index: username_1 dup key: { ... }
		_, rest, ok := strings.Cut(e.Message, "index: ")
		if !ok {
			return ""
		}
		name, _, _ := strings.Cut(rest, " ")
		return name
	}
	return ""
}
