package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
)

var ErrCostCenterNotFound = errors.New("cost center not found")

// ListCostCentersOptions filters a cost center listing.
type ListCostCentersOptions struct {
	Search string
	Kind   models.CostCenterKind
}

// CostCenterStore persists cost centers.
//
// The backend enforces: a MINISTRY cost center has a ministry (check), the ministry
// exists in the same organization (foreign key), and a ministry backs at most one
// cost center (unique).
type CostCenterStore interface {
	List(ctx context.Context, orgID uuid.UUID, opts ListCostCentersOptions) ([]*models.CostCenter, error)
	Get(ctx context.Context, orgID, costCenterID uuid.UUID) (*models.CostCenter, error)
	Create(ctx context.Context, cc *models.CostCenter) error
	Update(ctx context.Context, cc *models.CostCenter) error

	// Delete removes the cost center only. Documents allocated to it keep the id.
	Delete(ctx context.Context, orgID, costCenterID uuid.UUID) error
}
