package commands

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/logger"
	"github.com/contacerta/contacerta/internal/store/postgres"
)

// MigrateCmd applies pending migrations to the PostgreSQL database.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	if err := globals.applyProfile(); err != nil {
		return err
	}
	log.Logger = logger.Setup(globals.Debug)

	if globals.PostgresURL == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-url or CONTACERTA_POSTGRES_URL)")
	}

	pool, err := postgres.NewPool(ctx, &postgres.PoolConfig{ConnString: globals.PostgresURL, MaxConns: 1})
	if err != nil {
		return err
	}
	defer pool.Close()

	return postgres.Migrate(ctx, pool)
}
