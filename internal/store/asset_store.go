package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
)

var ErrAssetNotFound = errors.New("asset not found")

// ListAssetsOptions filters an asset listing.
type ListAssetsOptions struct {
	Search     string // matches name, code or location
	Status     models.AssetStatus
	CategoryID *uuid.UUID
	SupplierID *uuid.UUID
	Limit      int
}

// AssetStore persists assets. Codes are unique per organization.
type AssetStore interface {
	List(ctx context.Context, orgID uuid.UUID, opts ListAssetsOptions) ([]*models.Asset, error)
	Get(ctx context.Context, orgID, assetID uuid.UUID) (*models.Asset, error)
	Create(ctx context.Context, asset *models.Asset) error
	Update(ctx context.Context, asset *models.Asset) error
	Delete(ctx context.Context, orgID, assetID uuid.UUID) error
}
