package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
)

var ErrCategoryNotFound = errors.New("category not found")

// ListCategoriesOptions filters a category listing.
type ListCategoriesOptions struct {
	Scope       models.CategoryScope
	FinanceKind models.FinanceKind
	Search      string
	Limit       int
}

// CategoryStore persists categories. Names are unique per organization, scope and
// finance kind, ignoring case.
type CategoryStore interface {
	List(ctx context.Context, orgID uuid.UUID, opts ListCategoriesOptions) ([]*models.Category, error)
	Get(ctx context.Context, orgID, categoryID uuid.UUID) (*models.Category, error)

	// FindByName returns ErrCategoryNotFound when no category matches.
	FindByName(ctx context.Context, orgID uuid.UUID, scope models.CategoryScope, kind *models.FinanceKind, name string) (*models.Category, error)

	Create(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, orgID, categoryID uuid.UUID) error
}
