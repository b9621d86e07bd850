package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/centriq-hq/centriq/internal/logger"
	"github.com/centriq-hq/centriq/internal/server"
	"github.com/centriq-hq/centriq/internal/service"
	"github.com/centriq-hq/centriq/internal/store"
	memorystore "github.com/centriq-hq/centriq/internal/store/memory"
	postgresstore "github.com/centriq-hq/centriq/internal/store/postgres"
)

type ServerCmd struct {
	Listen       string `help:"HTTP server listen address" default:"localhost:8080" env:"CENTRIQ_LISTEN"`
	JWTPublicKey string `help:"path to the PEM-encoded ECDSA public key used to verify access tokens" required:"" env:"CENTRIQ_JWT_PUBLIC_KEY"`

	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"CENTRIQ_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"CENTRIQ_POSTGRES_AUTO_MIGRATE"`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	publicKeyPEM, err := os.ReadFile(c.JWTPublicKey)
	if err != nil {
		return fmt.Errorf("failed to read JWT public key: %w", err)
	}

	var stores store.Stores
	switch c.StoreType {
	case "postgres":
		if c.PostgresStore.ConnString == "" {
			return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
		}
		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
		})
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		stores = postgresstore.NewStores(pool)
		log.Info().Msg("Using PostgreSQL store")
	case "memory":
		stores = memorystore.NewStores()
		log.Warn().Msg("Using in-memory store, data will be lost on restart")
	default:
		return fmt.Errorf("unknown store type: %s", c.StoreType)
	}

	indexes, err := service.NewIndexes()
	if err != nil {
		return fmt.Errorf("failed to build aggregate indexes: %w", err)
	}
	svc := service.New(stores, indexes)

	// The aggregate indexes are in-memory and rebuilt from the stores on
	// every start.
	if err := svc.BackfillIndexes(ctx); err != nil {
		return fmt.Errorf("failed to backfill aggregate indexes: %w", err)
	}
	log.Info().Msg("Aggregate indexes backfilled")

	srv := server.NewServer(svc, server.Config{JWTPublicKeyPEM: string(publicKeyPEM)})
	handler, err := srv.Handler(log)
	if err != nil {
		return fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	log.Info().Str("listen", c.Listen).Msg("Listening for HTTP connections")
	return configureHTTPServer(c.Listen, handler).ListenAndServe()
}
