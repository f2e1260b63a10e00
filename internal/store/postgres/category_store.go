package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// CategoryStore implements store.CategoryStore using PostgreSQL.
type CategoryStore struct {
	b *Backend
}

var _ store.CategoryStore = (*CategoryStore)(nil)

const categoryColumns = `category_id, org_id, name, scope, finance_kind, created_at`

func scanCategory(row pgx.Row) (*models.Category, error) {
	var (
		c    models.Category
		kind *string
	)
	if err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.Scope, &kind, &c.CreatedAt); err != nil {
		return nil, err
	}
	if kind != nil {
		k := models.FinanceKind(*kind)
		c.FinanceKind = &k
	}
	return &c, nil
}

func financeKindParam(k *models.FinanceKind) *string {
	if k == nil {
		return nil
	}
	s := string(*k)
	return &s
}

func (s *CategoryStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListCategoriesOptions) ([]*models.Category, error) {
	where := newWhere(orgID)
	if opts.Scope != "" {
		where.add("scope = ?", string(opts.Scope))
	}
	if opts.FinanceKind != "" {
		where.add("finance_kind = ?", string(opts.FinanceKind))
	}
	if opts.Search != "" {
		where.add("name ILIKE ?", likePattern(opts.Search))
	}
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE org_id = $1` + where.sql() +
		` ORDER BY lower(name), category_id` + where.limit(opts.Limit)

	var result []*models.Category
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, where.args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanCategory(rows)
			if err != nil {
				return fmt.Errorf("failed to scan category: %w", err)
			}
			result = append(result, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapPostgresError(fmt.Errorf("failed to list categories: %w", err))
	}
	return result, nil
}

func (s *CategoryStore) Get(ctx context.Context, orgID, categoryID uuid.UUID) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE org_id = $1 AND category_id = $2`
	return s.getOne(ctx, query, orgID, categoryID)
}

func (s *CategoryStore) FindByName(ctx context.Context, orgID uuid.UUID, scope models.CategoryScope, kind *models.FinanceKind, name string) (*models.Category, error) {
	query := `
		SELECT ` + categoryColumns + ` FROM categories
		WHERE org_id = $1 AND scope = $2 AND coalesce(finance_kind, '') = coalesce($3, '') AND lower(name) = lower($4)
	`
	return s.getOne(ctx, query, orgID, string(scope), financeKindParam(kind), strings.TrimSpace(name))
}

func (s *CategoryStore) getOne(ctx context.Context, query string, args ...any) (*models.Category, error) {
	var c *models.Category
	err := s.b.withIdentity(ctx, func(tx pgx.Tx) (err error) {
		c, err = scanCategory(tx.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCategoryNotFound
		}
		return nil, mapPostgresError(fmt.Errorf("failed to get category: %w", err))
	}
	return c, nil
}

func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate category id: %w", err)
		}
		category.ID = id
	}

	query := `
		INSERT INTO categories (category_id, org_id, name, scope, finance_kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := s.b.withIdentity(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			category.ID,
			category.OrgID,
			strings.TrimSpace(category.Name),
			string(category.Scope),
			financeKindParam(category.FinanceKind),
		).Scan(&category.CreatedAt)
	})
	if err != nil {
		return mapPostgresError(fmt.Errorf("failed to create category: %w", err))
	}
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, orgID, categoryID uuid.UUID) error {
	return s.b.deleteRow(ctx, "categories", "category_id", orgID, categoryID, store.ErrCategoryNotFound)
}
