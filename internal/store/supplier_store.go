package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
)

var ErrSupplierNotFound = errors.New("supplier not found")

// ListSuppliersOptions filters a supplier listing.
type ListSuppliersOptions struct {
	Search     string // matches name or tax id
	ActiveOnly bool
	Limit      int
}

// SupplierStore persists suppliers.
type SupplierStore interface {
	List(ctx context.Context, orgID uuid.UUID, opts ListSuppliersOptions) ([]*models.Supplier, error)
	Get(ctx context.Context, orgID, supplierID uuid.UUID) (*models.Supplier, error)
	Create(ctx context.Context, supplier *models.Supplier) error
	Update(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, orgID, supplierID uuid.UUID) error
}
