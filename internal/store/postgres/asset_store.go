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

// AssetStore implements store.AssetStore using PostgreSQL.
type AssetStore struct {
	b *Backend
}

var _ store.AssetStore = (*AssetStore)(nil)

const assetColumns = `asset_id, org_id, code, name, description, category_id, supplier_id, location, status, acquired_at, acquisition_value, created_at, updated_at`

func scanAsset(row pgx.Row) (*models.Asset, error) {
	var a models.Asset
	err := row.Scan(
		&a.ID,
		&a.OrgID,
		&a.Code,
		&a.Name,
		&a.Description,
		&a.CategoryID,
		&a.SupplierID,
		&a.Location,
		&a.Status,
		&a.AcquiredAt,
		&a.AcquisitionValue,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AssetStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListAssetsOptions) ([]*models.Asset, error) {
	where := newWhere(orgID)
	if opts.Status != "" {
		where.add("status = ?", string(opts.Status))
	}
	if opts.CategoryID != nil {
		where.add("category_id = ?", *opts.CategoryID)
	}
	if opts.SupplierID != nil {
		where.add("supplier_id = ?", *opts.SupplierID)
	}
	if opts.Search != "" {
		p := likePattern(opts.Search)
		where.add("(name ILIKE ? OR code ILIKE ? OR location ILIKE ?)", p, p, p)
	}
	query := `SELECT ` + assetColumns + ` FROM assets WHERE org_id = $1` + where.sql() +
		` ORDER BY created_at DESC, asset_id DESC` + where.limit(opts.Limit)

	var result []*models.Asset
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, where.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			a, err := scanAsset(rows)
			if err != nil {
				return fmt.Errorf("failed to scan asset: %w", err)
			}
			result = append(result, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapPostgresError(fmt.Errorf("failed to list assets: %w", err))
	}
	return result, nil
}

func (s *AssetStore) Get(ctx context.Context, orgID, assetID uuid.UUID) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE org_id = $1 AND asset_id = $2`

	var a *models.Asset
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) (err error) {
		a, err = scanAsset(tx.QueryRow(ctx, query, orgID, assetID))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAssetNotFound
		}
		return nil, mapPostgresError(fmt.Errorf("failed to get asset: %w", err))
	}
	return a, nil
}

func (s *AssetStore) Create(ctx context.Context, asset *models.Asset) error {
	if asset.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate asset id: %w", err)
		}
		asset.ID = id
	}

	query := `
		INSERT INTO assets (
			asset_id, org_id, code, name, description, category_id, supplier_id,
			location, status, acquired_at, acquisition_value
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			asset.ID,
			asset.OrgID,
			asset.Code,
			asset.Name,
			asset.Description,
			asset.CategoryID,
			asset.SupplierID,
			asset.Location,
			string(asset.Status),
			asset.AcquiredAt,
			asset.AcquisitionValue,
		).Scan(&asset.CreatedAt, &asset.UpdatedAt)
	})
	if err != nil {
		return mapPostgresError(fmt.Errorf("failed to create asset: %w", err))
	}

	log.Debug().Str("org_id", asset.OrgID.String()).Str("code", asset.Code).Msg("Created asset")
	return nil
}

func (s *AssetStore) Update(ctx context.Context, asset *models.Asset) error {
	query := `
		UPDATE assets SET
			code = $3, name = $4, description = $5, category_id = $6, supplier_id = $7,
			location = $8, status = $9, acquired_at = $10, acquisition_value = $11, updated_at = now()
		WHERE org_id = $1 AND asset_id = $2
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			asset.OrgID,
			asset.ID,
			asset.Code,
			asset.Name,
			asset.Description,
			asset.CategoryID,
			asset.SupplierID,
			asset.Location,
			string(asset.Status),
			asset.AcquiredAt,
			asset.AcquisitionValue,
		).Scan(&asset.CreatedAt, &asset.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrAssetNotFound
		}
		return mapPostgresError(fmt.Errorf("failed to update asset: %w", err))
	}
	return nil
}

func (s *AssetStore) Delete(ctx context.Context, orgID, assetID uuid.UUID) error {
	return s.b.deleteRow(ctx, "assets", "asset_id", orgID, assetID, store.ErrAssetNotFound)
}
