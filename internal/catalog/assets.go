package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/apperr"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

var assetMessages = messages{
	store.CodeNotNull:                "Required data is missing.",
	store.CodeUnique:                 "Another asset already uses this code.",
	"assets_status_check":            "Select a valid status.",
	"assets_acquisition_value_check": "Acquisition value cannot be negative.",
	"assets_category_id_fkey":        "Select a valid category.",
	"assets_supplier_id_fkey":        "Select a valid supplier.",
}

// ListAssets returns assets of orgID.
func (s *Service) ListAssets(ctx context.Context, orgID uuid.UUID, opts store.ListAssetsOptions) ([]*models.Asset, error) {
	opts.Search = strings.TrimSpace(opts.Search)
	assets, err := s.stores.Assets.List(ctx, orgID, opts)
	return assets, apperr.FromStore(err)
}

// SaveAsset creates or updates an asset. New assets without a code get PAT-<id prefix>.
func (s *Service) SaveAsset(ctx context.Context, a *models.Asset) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Code = strings.ToUpper(strings.TrimSpace(a.Code))
	a.Description = trimPtr(a.Description)
	a.Location = trimPtr(a.Location)
	if a.Status == "" {
		a.Status = models.AssetInUse
	}

	creating := a.ID == uuid.Nil
	if creating && a.Code == "" {
		// random ids; time-ordered ones share their leading digits
		a.ID = uuid.New()
		a.Code = models.AssetCode(a.ID)
	}

	if err := s.check(a); err != nil {
		return err
	}
	if a.AcquisitionValue.IsNegative() {
		return apperr.Validation("Acquisition value", assetMessages["assets_acquisition_value_check"])
	}
	if a.CategoryID != nil {
		if err := s.requireCategory(ctx, a.OrgID, *a.CategoryID, models.CategoryAsset, nil); err != nil {
			return err
		}
	}

	var err error
	if creating {
		err = s.stores.Assets.Create(ctx, a)
	} else {
		err = s.stores.Assets.Update(ctx, a)
	}
	return translate(err, assetMessages)
}

// DeleteAsset deletes an asset.
func (s *Service) DeleteAsset(ctx context.Context, orgID, assetID uuid.UUID) error {
	return translate(s.stores.Assets.Delete(ctx, orgID, assetID), assetMessages)
}

// DescribeAssetDeletion explains what deleting the asset does.
func (s *Service) DescribeAssetDeletion(ctx context.Context, orgID, assetID uuid.UUID) (string, error) {
	a, err := s.stores.Assets.Get(ctx, orgID, assetID)
	if err != nil {
		return "", apperr.FromStore(err)
	}
	if a.Status != models.AssetDisposed {
		return fmt.Sprintf("Delete asset %s (%s)? It is %s; consider marking it disposed instead.", a.Code, a.Name, strings.ToLower(a.Status.Label())), nil
	}
	return fmt.Sprintf("Delete asset %s (%s)? This cannot be undone.", a.Code, a.Name), nil
}
