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

// DocumentStore implements store.DocumentStore using PostgreSQL.
type DocumentStore struct {
	b *Backend
}

var _ store.DocumentStore = (*DocumentStore)(nil)

const documentColumns = `document_id, org_id, type, description, amount, issue_date, due_date, payment_date, status,
	category_id, cost_center_id, supplier_id, member_id, created_at, updated_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var (
		d                    models.Document
		supplierID, memberID *uuid.UUID
	)
	err := row.Scan(
		&d.ID,
		&d.OrgID,
		&d.Type,
		&d.Description,
		&d.Amount,
		&d.IssueDate,
		&d.DueDate,
		&d.PaymentDate,
		&d.Status,
		&d.CategoryID,
		&d.CostCenterID,
		&supplierID,
		&memberID,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Party = models.PartyFromColumns(supplierID, memberID)
	return &d, nil
}

func (s *DocumentStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListDocumentsOptions) ([]*models.Document, error) {
	where := newWhere(orgID)
	if opts.Type != "" {
		where.add("type = ?", string(opts.Type))
	}
	if opts.Status != "" {
		where.add("status = ?", string(opts.Status))
	}
	if opts.CostCenterID != nil {
		where.add("cost_center_id = ?", *opts.CostCenterID)
	}
	if opts.DueFrom != nil {
		where.add("due_date >= ?", *opts.DueFrom)
	}
	if opts.DueTo != nil {
		where.add("due_date <= ?", *opts.DueTo)
	}
	if opts.Search != "" {
		where.add("description ILIKE ?", likePattern(opts.Search))
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE org_id = $1` + where.sql() +
		` ORDER BY due_date DESC, document_id DESC` + where.limit(opts.Limit)

	var result []*models.Document
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, where.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			d, err := scanDocument(rows)
			if err != nil {
				return fmt.Errorf("failed to scan document: %w", err)
			}
			result = append(result, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapPostgresError(fmt.Errorf("failed to list documents: %w", err))
	}
	return result, nil
}

func (s *DocumentStore) Get(ctx context.Context, orgID, documentID uuid.UUID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE org_id = $1 AND document_id = $2`

	var d *models.Document
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) (err error) {
		d, err = scanDocument(tx.QueryRow(ctx, query, orgID, documentID))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrDocumentNotFound
		}
		return nil, mapPostgresError(fmt.Errorf("failed to get document: %w", err))
	}
	return d, nil
}

func (s *DocumentStore) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate document id: %w", err)
		}
		doc.ID = id
	}
	supplierID, memberID := doc.Party.Columns()

	query := `
		INSERT INTO documents (
			document_id, org_id, type, description, amount, issue_date, due_date, payment_date,
			status, category_id, cost_center_id, supplier_id, member_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			doc.ID,
			doc.OrgID,
			string(doc.Type),
			doc.Description,
			doc.Amount,
			doc.IssueDate,
			doc.DueDate,
			doc.PaymentDate,
			string(doc.Status),
			doc.CategoryID,
			doc.CostCenterID,
			supplierID,
			memberID,
		).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	})
	if err != nil {
		return mapPostgresError(fmt.Errorf("failed to create document: %w", err))
	}

	log.Debug().
		Str("org_id", doc.OrgID.String()).
		Str("document_id", doc.ID.String()).
		Str("type", string(doc.Type)).
		Msg("Created document")
	return nil
}

func (s *DocumentStore) Update(ctx context.Context, doc *models.Document) error {
	supplierID, memberID := doc.Party.Columns()

	query := `
		UPDATE documents SET
			type = $3, description = $4, amount = $5, issue_date = $6, due_date = $7,
			payment_date = $8, status = $9, category_id = $10, cost_center_id = $11,
			supplier_id = $12, member_id = $13, updated_at = now()
		WHERE org_id = $1 AND document_id = $2
		RETURNING created_at, updated_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			doc.OrgID,
			doc.ID,
			string(doc.Type),
			doc.Description,
			doc.Amount,
			doc.IssueDate,
			doc.DueDate,
			doc.PaymentDate,
			string(doc.Status),
			doc.CategoryID,
			doc.CostCenterID,
			supplierID,
			memberID,
		).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrDocumentNotFound
		}
		return mapPostgresError(fmt.Errorf("failed to update document: %w", err))
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, orgID, documentID uuid.UUID) error {
	return s.b.deleteRow(ctx, "documents", "document_id", orgID, documentID, store.ErrDocumentNotFound)
}

func (s *DocumentStore) CountByCostCenter(ctx context.Context, orgID, costCenterID uuid.UUID) (int, error) {
	var n int
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT count(*) FROM documents WHERE org_id = $1 AND cost_center_id = $2`,
			orgID, costCenterID).Scan(&n)
	})
	if err != nil {
		return 0, mapPostgresError(fmt.Errorf("failed to count documents: %w", err))
	}
	return n, nil
}
