package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// SupplierStore implements store.SupplierStore on a Backend.
type SupplierStore struct {
	b *Backend
}

var _ store.SupplierStore = (*SupplierStore)(nil)

func (s *SupplierStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListSuppliersOptions) ([]*models.Supplier, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.b.visible(ctx, orgID) {
		return nil, nil
	}

	var result []*models.Supplier
	for _, sup := range s.b.suppliers {
		if sup.OrgID != orgID || (opts.ActiveOnly && !sup.IsActive()) {
			continue
		}
		if !matches(opts.Search, sup.Name, deref(sup.TaxID)) {
			continue
		}
		clone := *sup
		result = append(result, &clone)
	}
	sortByName(result, func(s *models.Supplier) string { return s.Name })
	return limit(result, opts.Limit), nil
}

func (s *SupplierStore) Get(ctx context.Context, orgID, supplierID uuid.UUID) (*models.Supplier, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	sup, ok := s.b.suppliers[supplierID]
	if !ok || sup.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return nil, store.ErrSupplierNotFound
	}
	clone := *sup
	return &clone, nil
}

func (s *SupplierStore) Create(ctx context.Context, supplier *models.Supplier) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if err := s.b.checkWrite(ctx, supplier.OrgID); err != nil {
		return err
	}
	if err := s.check(supplier); err != nil {
		return err
	}

	if supplier.ID == uuid.Nil {
		supplier.ID = newID()
	}
	now := s.b.now()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now
	clone := *supplier
	s.b.suppliers[supplier.ID] = &clone
	return nil
}

func (s *SupplierStore) Update(ctx context.Context, supplier *models.Supplier) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	existing, ok := s.b.suppliers[supplier.ID]
	if !ok || existing.OrgID != supplier.OrgID || !s.b.visible(ctx, supplier.OrgID) {
		return store.ErrSupplierNotFound
	}
	if err := s.check(supplier); err != nil {
		return err
	}

	supplier.CreatedAt = existing.CreatedAt
	supplier.UpdatedAt = s.b.now()
	clone := *supplier
	s.b.suppliers[supplier.ID] = &clone
	return nil
}

func (s *SupplierStore) Delete(ctx context.Context, orgID, supplierID uuid.UUID) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	sup, ok := s.b.suppliers[supplierID]
	if !ok || sup.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return store.ErrSupplierNotFound
	}
	for _, d := range s.b.documents {
		if id, ok := d.Party.SupplierID(); ok && id == supplierID {
			return store.NewConstraintError(store.ConstraintForeignKey, "documents_supplier_id_fkey")
		}
	}
	for _, a := range s.b.assets {
		if a.SupplierID != nil && *a.SupplierID == supplierID {
			a.SupplierID = nil
		}
	}

	delete(s.b.suppliers, supplierID)
	return nil
}

// check runs the row constraints. Caller must hold s.b.mu.
func (s *SupplierStore) check(sup *models.Supplier) error {
	if sup.Name == "" {
		return store.NewConstraintError(store.ConstraintNotNull, "name")
	}
	if sup.Kind != models.PersonIndividual && sup.Kind != models.PersonCompany {
		return store.NewConstraintError(store.ConstraintCheck, "suppliers_kind_check")
	}
	if sup.Status != models.SupplierActive && sup.Status != models.SupplierInactive {
		return store.NewConstraintError(store.ConstraintCheck, "suppliers_status_check")
	}
	if sup.CategoryID != nil && !inOrg(s.b.categories, *sup.CategoryID, sup.OrgID, func(c *models.Category) uuid.UUID { return c.OrgID }) {
		return store.NewConstraintError(store.ConstraintForeignKey, "suppliers_category_id_fkey")
	}
	return nil
}
