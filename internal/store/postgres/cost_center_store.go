package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// CostCenterStore implements store.CostCenterStore using PostgreSQL.
type CostCenterStore struct {
	b *Backend
}

var _ store.CostCenterStore = (*CostCenterStore)(nil)

const costCenterColumns = `cost_center_id, org_id, kind, name, ministry_id, created_at, updated_at`

func scanCostCenter(row pgx.Row) (*models.CostCenter, error) {
	var cc models.CostCenter
	if err := row.Scan(&cc.ID, &cc.OrgID, &cc.Kind, &cc.Name, &cc.MinistryID, &cc.CreatedAt, &cc.UpdatedAt); err != nil {
		return nil, err
	}
	return &cc, nil
}

func (s *CostCenterStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListCostCentersOptions) ([]*models.CostCenter, error) {
	where := newWhere(orgID)
	if opts.Kind != "" {
		where.add("kind = ?", string(opts.Kind))
	}
	if opts.Search != "" {
		where.add("name ILIKE ?", likePattern(opts.Search))
	}
	query := `SELECT ` + costCenterColumns + ` FROM cost_centers WHERE org_id = $1` + where.sql() + ` ORDER BY lower(name), cost_center_id`

	var result []*models.CostCenter
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, where.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			cc, err := scanCostCenter(rows)
			if err != nil {
				return fmt.Errorf("failed to scan cost center: %w", err)
			}
			result = append(result, cc)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapPostgresError(fmt.Errorf("failed to list cost centers: %w", err))
	}
	return result, nil
}

func (s *CostCenterStore) Get(ctx context.Context, orgID, costCenterID uuid.UUID) (*models.CostCenter, error) {
	query := `SELECT ` + costCenterColumns + ` FROM cost_centers WHERE org_id = $1 AND cost_center_id = $2`

	var cc *models.CostCenter
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) (err error) {
		cc, err = scanCostCenter(tx.QueryRow(ctx, query, orgID, costCenterID))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCostCenterNotFound
		}
		return nil, mapPostgresError(fmt.Errorf("failed to get cost center: %w", err))
	}
	return cc, nil
}

func (s *CostCenterStore) Create(ctx context.Context, cc *models.CostCenter) error {
	if cc.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate cost center id: %w", err)
		}
		cc.ID = id
	}

	query := `
		INSERT INTO cost_centers (cost_center_id, org_id, kind, name, ministry_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, cc.ID, cc.OrgID, string(cc.Kind), cc.Name, cc.MinistryID).
			Scan(&cc.CreatedAt, &cc.UpdatedAt)
	})
	if err != nil {
		return mapPostgresError(fmt.Errorf("failed to create cost center: %w", err))
	}

	log.Debug().Str("org_id", cc.OrgID.String()).Str("cost_center_id", cc.ID.String()).Str("kind", string(cc.Kind)).Msg("Created cost center")
	return nil
}

func (s *CostCenterStore) Update(ctx context.Context, cc *models.CostCenter) error {
	query := `
		UPDATE cost_centers SET kind = $3, name = $4, ministry_id = $5, updated_at = now()
		WHERE org_id = $1 AND cost_center_id = $2
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query, cc.OrgID, cc.ID, string(cc.Kind), cc.Name, cc.MinistryID).
			Scan(&cc.CreatedAt, &cc.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrCostCenterNotFound
		}
		return mapPostgresError(fmt.Errorf("failed to update cost center: %w", err))
	}
	return nil
}

func (s *CostCenterStore) Delete(ctx context.Context, orgID, costCenterID uuid.UUID) error {
	return s.b.deleteRow(ctx, "cost_centers", "cost_center_id", orgID, costCenterID, store.ErrCostCenterNotFound)
}
