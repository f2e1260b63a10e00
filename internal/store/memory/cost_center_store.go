package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// CostCenterStore implements store.CostCenterStore on a Backend.
type CostCenterStore struct {
	b *Backend
}

var _ store.CostCenterStore = (*CostCenterStore)(nil)

func (s *CostCenterStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListCostCentersOptions) ([]*models.CostCenter, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.b.visible(ctx, orgID) {
		return nil, nil
	}

	var result []*models.CostCenter
	for _, cc := range s.b.costCenters {
		if cc.OrgID != orgID || (opts.Kind != "" && cc.Kind != opts.Kind) || !matches(opts.Search, cc.Name) {
			continue
		}
		clone := *cc
		result = append(result, &clone)
	}
	sortByName(result, func(cc *models.CostCenter) string { return cc.Name })
	return result, nil
}

func (s *CostCenterStore) Get(ctx context.Context, orgID, costCenterID uuid.UUID) (*models.CostCenter, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	cc, ok := s.b.costCenters[costCenterID]
	if !ok || cc.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return nil, store.ErrCostCenterNotFound
	}
	clone := *cc
	return &clone, nil
}

func (s *CostCenterStore) Create(ctx context.Context, cc *models.CostCenter) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if err := s.b.checkWrite(ctx, cc.OrgID); err != nil {
		return err
	}
	if cc.ID == uuid.Nil {
		cc.ID = newID()
	}
	if err := s.check(cc); err != nil {
		return err
	}

	now := s.b.now()
	cc.CreatedAt = now
	cc.UpdatedAt = now
	clone := *cc
	s.b.costCenters[cc.ID] = &clone
	return nil
}

func (s *CostCenterStore) Update(ctx context.Context, cc *models.CostCenter) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	existing, ok := s.b.costCenters[cc.ID]
	if !ok || existing.OrgID != cc.OrgID || !s.b.visible(ctx, cc.OrgID) {
		return store.ErrCostCenterNotFound
	}
	if err := s.check(cc); err != nil {
		return err
	}

	cc.CreatedAt = existing.CreatedAt
	cc.UpdatedAt = s.b.now()
	clone := *cc
	s.b.costCenters[cc.ID] = &clone
	return nil
}

// Delete leaves documents pointing at the removed cost center untouched.
func (s *CostCenterStore) Delete(ctx context.Context, orgID, costCenterID uuid.UUID) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	cc, ok := s.b.costCenters[costCenterID]
	if !ok || cc.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return store.ErrCostCenterNotFound
	}
	delete(s.b.costCenters, costCenterID)
	return nil
}

// check mirrors the table constraints.
// Caller must hold s.b.mu.
func (s *CostCenterStore) check(cc *models.CostCenter) error {
	if cc.Kind == "" {
		return store.NewConstraintError(store.ConstraintNotNull, "kind")
	}
	if !cc.Kind.IsValid() {
		return store.NewConstraintError(store.ConstraintCheck, "cost_centers_kind_check")
	}
	if cc.Kind == models.CostCenterMinistry && cc.MinistryID == nil {
		return store.NewConstraintError(store.ConstraintCheck, "cost_centers_ministry_required")
	}
	if cc.Kind != models.CostCenterMinistry && cc.MinistryID != nil {
		return store.NewConstraintError(store.ConstraintCheck, "cost_centers_ministry_required")
	}
	if cc.Name == "" {
		return store.NewConstraintError(store.ConstraintNotNull, "name")
	}
	if cc.MinistryID == nil {
		return nil
	}
	if !inOrg(s.b.ministries, *cc.MinistryID, cc.OrgID, func(m *models.Ministry) uuid.UUID { return m.OrgID }) {
		return store.NewConstraintError(store.ConstraintForeignKey, "cost_centers_ministry_id_fkey")
	}
	for _, other := range s.b.costCenters {
		if other.ID != cc.ID && other.MinistryID != nil && *other.MinistryID == *cc.MinistryID {
			return store.NewConstraintError(store.ConstraintUnique, "cost_centers_ministry_id_key")
		}
	}
	return nil
}
