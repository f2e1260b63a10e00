package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// AssetStore implements store.AssetStore on a Backend.
type AssetStore struct {
	b *Backend
}

var _ store.AssetStore = (*AssetStore)(nil)

// List orders assets by creation time, newest first.
func (s *AssetStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListAssetsOptions) ([]*models.Asset, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.b.visible(ctx, orgID) {
		return nil, nil
	}

	var result []*models.Asset
	for _, a := range s.b.assets {
		if a.OrgID != orgID || (opts.Status != "" && a.Status != opts.Status) {
			continue
		}
		if opts.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *opts.CategoryID) {
			continue
		}
		if opts.SupplierID != nil && (a.SupplierID == nil || *a.SupplierID != *opts.SupplierID) {
			continue
		}
		if !matches(opts.Search, a.Name, a.Code, deref(a.Location)) {
			continue
		}
		clone := *a
		result = append(result, &clone)
	}
	slices.SortStableFunc(result, func(a, b *models.Asset) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})
	return limit(result, opts.Limit), nil
}

func (s *AssetStore) Get(ctx context.Context, orgID, assetID uuid.UUID) (*models.Asset, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	a, ok := s.b.assets[assetID]
	if !ok || a.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return nil, store.ErrAssetNotFound
	}
	clone := *a
	return &clone, nil
}

func (s *AssetStore) Create(ctx context.Context, asset *models.Asset) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if err := s.b.checkWrite(ctx, asset.OrgID); err != nil {
		return err
	}
	if asset.ID == uuid.Nil {
		asset.ID = newID()
	}
	if err := s.check(asset); err != nil {
		return err
	}

	now := s.b.now()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	clone := *asset
	s.b.assets[asset.ID] = &clone
	return nil
}

func (s *AssetStore) Update(ctx context.Context, asset *models.Asset) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	existing, ok := s.b.assets[asset.ID]
	if !ok || existing.OrgID != asset.OrgID || !s.b.visible(ctx, asset.OrgID) {
		return store.ErrAssetNotFound
	}
	if err := s.check(asset); err != nil {
		return err
	}

	asset.CreatedAt = existing.CreatedAt
	asset.UpdatedAt = s.b.now()
	clone := *asset
	s.b.assets[asset.ID] = &clone
	return nil
}

func (s *AssetStore) Delete(ctx context.Context, orgID, assetID uuid.UUID) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	a, ok := s.b.assets[assetID]
	if !ok || a.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return store.ErrAssetNotFound
	}
	delete(s.b.assets, assetID)
	return nil
}

// check runs the row constraints. Caller must hold s.b.mu.
func (s *AssetStore) check(a *models.Asset) error {
	if a.Name == "" {
		return store.NewConstraintError(store.ConstraintNotNull, "name")
	}
	if a.Code == "" {
		return store.NewConstraintError(store.ConstraintNotNull, "code")
	}
	switch a.Status {
	case models.AssetInUse, models.AssetInStorage, models.AssetInMaintenance, models.AssetDisposed:
	default:
		return store.NewConstraintError(store.ConstraintCheck, "assets_status_check")
	}
	if a.AcquisitionValue.IsNegative() {
		return store.NewConstraintError(store.ConstraintCheck, "assets_acquisition_value_check")
	}
	if a.CategoryID != nil && !inOrg(s.b.categories, *a.CategoryID, a.OrgID, func(c *models.Category) uuid.UUID { return c.OrgID }) {
		return store.NewConstraintError(store.ConstraintForeignKey, "assets_category_id_fkey")
	}
	if a.SupplierID != nil && !inOrg(s.b.suppliers, *a.SupplierID, a.OrgID, func(s *models.Supplier) uuid.UUID { return s.OrgID }) {
		return store.NewConstraintError(store.ConstraintForeignKey, "assets_supplier_id_fkey")
	}
	for _, other := range s.b.assets {
		if other.ID != a.ID && other.OrgID == a.OrgID && other.Code == a.Code {
			return store.NewConstraintError(store.ConstraintUnique, "assets_org_id_code_key")
		}
	}
	return nil
}
