package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/auth"
	"github.com/contacerta/contacerta/internal/store"
)

// appRole is the database role requests run as so row-level security applies.
const appRole = "contacerta_app"

// Config configures the PostgreSQL backend.
type Config struct {
	Pool PoolConfig

	// AutoMigrate applies pending migrations when the backend is opened.
	AutoMigrate bool
}

// Backend gives access to every PostgreSQL store over one pool.
type Backend struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL, optionally migrates, and returns the backend.
func Open(ctx context.Context, cfg *Config) (*Backend, error) {
	pool, err := NewPool(ctx, &cfg.Pool)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return NewBackend(pool), nil
}

// NewBackend wraps an existing pool.
func NewBackend(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool}
}

// Close releases the pool.
func (b *Backend) Close() {
	b.pool.Close()
}

// Stores returns every store backed by b.
func (b *Backend) Stores() store.Stores {
	return store.Stores{
		Organizations: &OrganizationStore{b: b},
		Members:       &MemberStore{b: b},
		Ministries:    &MinistryStore{b: b},
		Suppliers:     &SupplierStore{b: b},
		CostCenters:   &CostCenterStore{b: b},
		Categories:    &CategoryStore{b: b},
		Assets:        &AssetStore{b: b},
		Documents:     &DocumentStore{b: b},
	}
}

// withIdentity runs fn in a transaction that acts as the identity carried by ctx:
// the role is switched to appRole and app.identity_id is set, so row-level
// security policies filter every statement fn executes.
func (b *Backend) withIdentity(ctx context.Context, fn func(tx pgx.Tx) error) error {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return store.ErrNoIdentity
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return mapPostgresError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+appRole); err != nil {
		return fmt.Errorf("failed to switch role: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT set_config('app.identity_id', $1, true)`, identity.ID.String()); err != nil {
		return fmt.Errorf("failed to bind identity: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPostgresError(fmt.Errorf("failed to commit transaction: %w", err))
	}

	log.Trace().Str("identity_id", identity.ID.String()).Msg("Committed scoped transaction")
	return nil
}

// deleteRow deletes one row of table by id, returning notFound when no visible row matched.
// table and idColumn are compile-time constants supplied by the stores.
func (b *Backend) deleteRow(ctx context.Context, table, idColumn string, orgID, id uuid.UUID, notFound error) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE org_id = $1 AND %s = $2`, table, idColumn)

	var affected int64
	err := b.withIdentity(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, query, orgID, id)
		if err != nil {
			return err
		}
		affected = result.RowsAffected()
		return nil
	})
	if err != nil {
		return mapPostgresError(fmt.Errorf("failed to delete from %s: %w", table, err))
	}
	if affected == 0 {
		return notFound
	}

	log.Debug().Str("org_id", orgID.String()).Str("table", table).Str("id", id.String()).Msg("Deleted row")
	return nil
}
