package commands

import (
	"context"
	"fmt"

	"github.com/centriq-hq/centriq/internal/logger"
	"github.com/centriq-hq/centriq/internal/service"
	postgresstore "github.com/centriq-hq/centriq/internal/store/postgres"
)

// BackfillCmd walks every record table and rebuilds the aggregate indexes,
// reporting how long a cold start would spend doing the same.
type BackfillCmd struct {
	ConnString string `help:"PostgreSQL connection string" required:"" env:"POSTGRES_CONNECTION_STRING"`
}

func (b *BackfillCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{ConnString: b.ConnString})
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	indexes, err := service.NewIndexes()
	if err != nil {
		return fmt.Errorf("failed to build aggregate indexes: %w", err)
	}
	svc := service.New(postgresstore.NewStores(pool), indexes)

	if err := svc.BackfillIndexes(ctx); err != nil {
		return fmt.Errorf("failed to backfill aggregate indexes: %w", err)
	}

	log.Info().Msg("Aggregate indexes backfilled")
	return nil
}
