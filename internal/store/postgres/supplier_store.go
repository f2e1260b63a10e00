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

// SupplierStore implements store.SupplierStore using PostgreSQL.
type SupplierStore struct {
	b *Backend
}

var _ store.SupplierStore = (*SupplierStore)(nil)

const supplierColumns = `supplier_id, org_id, kind, name, tax_id, email, phone, category_id, address, bank_info, status, notes, created_at, updated_at`

func scanSupplier(row pgx.Row) (*models.Supplier, error) {
	var s models.Supplier
	err := row.Scan(
		&s.ID,
		&s.OrgID,
		&s.Kind,
		&s.Name,
		&s.TaxID,
		&s.Email,
		&s.Phone,
		&s.CategoryID,
		&s.Address,
		&s.BankInfo,
		&s.Status,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *SupplierStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListSuppliersOptions) ([]*models.Supplier, error) {
	where := newWhere(orgID)
	if opts.ActiveOnly {
		where.add("status = ?", string(models.SupplierActive))
	}
	if opts.Search != "" {
		p := likePattern(opts.Search)
		where.add("(name ILIKE ? OR tax_id ILIKE ?)", p, p)
	}
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE org_id = $1` + where.sql() +
		` ORDER BY lower(name), supplier_id` + where.limit(opts.Limit)

	var result []*models.Supplier
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, where.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			sup, err := scanSupplier(rows)
			if err != nil {
				return fmt.Errorf("failed to scan supplier: %w", err)
			}
			result = append(result, sup)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapPostgresError(fmt.Errorf("failed to list suppliers: %w", err))
	}
	return result, nil
}

func (s *SupplierStore) Get(ctx context.Context, orgID, supplierID uuid.UUID) (*models.Supplier, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE org_id = $1 AND supplier_id = $2`

	var sup *models.Supplier
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) (err error) {
		sup, err = scanSupplier(tx.QueryRow(ctx, query, orgID, supplierID))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSupplierNotFound
		}
		return nil, mapPostgresError(fmt.Errorf("failed to get supplier: %w", err))
	}
	return sup, nil
}

func (s *SupplierStore) Create(ctx context.Context, supplier *models.Supplier) error {
	if supplier.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate supplier id: %w", err)
		}
		supplier.ID = id
	}

	query := `
		INSERT INTO suppliers (
			supplier_id, org_id, kind, name, tax_id, email, phone,
			category_id, address, bank_info, status, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			supplier.ID,
			supplier.OrgID,
			string(supplier.Kind),
			supplier.Name,
			supplier.TaxID,
			supplier.Email,
			supplier.Phone,
			supplier.CategoryID,
			supplier.Address,
			supplier.BankInfo,
			string(supplier.Status),
			supplier.Notes,
		).Scan(&supplier.CreatedAt, &supplier.UpdatedAt)
	})
	if err != nil {
		return mapPostgresError(fmt.Errorf("failed to create supplier: %w", err))
	}

	log.Debug().Str("org_id", supplier.OrgID.String()).Str("supplier_id", supplier.ID.String()).Msg("Created supplier")
	return nil
}

func (s *SupplierStore) Update(ctx context.Context, supplier *models.Supplier) error {
	query := `
		UPDATE suppliers SET
			kind = $3, name = $4, tax_id = $5, email = $6, phone = $7, category_id = $8,
			address = $9, bank_info = $10, status = $11, notes = $12, updated_at = now()
		WHERE org_id = $1 AND supplier_id = $2
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			supplier.OrgID,
			supplier.ID,
			string(supplier.Kind),
			supplier.Name,
			supplier.TaxID,
			supplier.Email,
			supplier.Phone,
			supplier.CategoryID,
			supplier.Address,
			supplier.BankInfo,
			string(supplier.Status),
			supplier.Notes,
		).Scan(&supplier.CreatedAt, &supplier.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrSupplierNotFound
		}
		return mapPostgresError(fmt.Errorf("failed to update supplier: %w", err))
	}
	return nil
}

func (s *SupplierStore) Delete(ctx context.Context, orgID, supplierID uuid.UUID) error {
	return s.b.deleteRow(ctx, "suppliers", "supplier_id", orgID, supplierID, store.ErrSupplierNotFound)
}
