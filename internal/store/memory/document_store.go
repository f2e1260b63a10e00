package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// DocumentStore implements store.DocumentStore on a Backend.
type DocumentStore struct {
	b *Backend
}

var _ store.DocumentStore = (*DocumentStore)(nil)

func (s *DocumentStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListDocumentsOptions) ([]*models.Document, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.b.visible(ctx, orgID) {
		return nil, nil
	}

	var result []*models.Document
	for _, d := range s.b.documents {
		if d.OrgID != orgID || (opts.Type != "" && d.Type != opts.Type) || (opts.Status != "" && d.Status != opts.Status) {
			continue
		}
		if opts.CostCenterID != nil && d.CostCenterID != *opts.CostCenterID {
			continue
		}
		if opts.DueFrom != nil && d.DueDate.Before(*opts.DueFrom) {
			continue
		}
		if opts.DueTo != nil && d.DueDate.After(*opts.DueTo) {
			continue
		}
		if !matches(opts.Search, d.Description) {
			continue
		}
		clone := *d
		result = append(result, &clone)
	}
	slices.SortStableFunc(result, func(a, b *models.Document) int {
		if c := b.DueDate.Compare(a.DueDate); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})
	return limit(result, opts.Limit), nil
}

func (s *DocumentStore) Get(ctx context.Context, orgID, documentID uuid.UUID) (*models.Document, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	d, ok := s.b.documents[documentID]
	if !ok || d.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return nil, store.ErrDocumentNotFound
	}
	clone := *d
	return &clone, nil
}

func (s *DocumentStore) Create(ctx context.Context, doc *models.Document) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if err := s.b.checkWrite(ctx, doc.OrgID); err != nil {
		return err
	}
	if err := s.check(doc); err != nil {
		return err
	}

	if doc.ID == uuid.Nil {
		doc.ID = newID()
	}
	now := s.b.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	clone := *doc
	s.b.documents[doc.ID] = &clone
	return nil
}

func (s *DocumentStore) Update(ctx context.Context, doc *models.Document) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	existing, ok := s.b.documents[doc.ID]
	if !ok || existing.OrgID != doc.OrgID || !s.b.visible(ctx, doc.OrgID) {
		return store.ErrDocumentNotFound
	}
	if err := s.check(doc); err != nil {
		return err
	}

	doc.CreatedAt = existing.CreatedAt
	doc.UpdatedAt = s.b.now()
	clone := *doc
	s.b.documents[doc.ID] = &clone
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, orgID, documentID uuid.UUID) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	d, ok := s.b.documents[documentID]
	if !ok || d.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return store.ErrDocumentNotFound
	}
	delete(s.b.documents, documentID)
	return nil
}

func (s *DocumentStore) CountByCostCenter(ctx context.Context, orgID, costCenterID uuid.UUID) (int, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.b.visible(ctx, orgID) {
		return 0, nil
	}
	n := 0
	for _, d := range s.b.documents {
		if d.OrgID == orgID && d.CostCenterID == costCenterID {
			n++
		}
	}
	return n, nil
}

// check runs the row constraints. The cost center column has no foreign key so
// documents survive the deletion of their cost center. Caller must hold s.b.mu.
func (s *DocumentStore) check(d *models.Document) error {
	switch {
	case d.Description == "":
		return store.NewConstraintError(store.ConstraintNotNull, "description")
	case d.CostCenterID == uuid.Nil:
		return store.NewConstraintError(store.ConstraintNotNull, "cost_center_id")
	case d.DueDate.IsZero():
		return store.NewConstraintError(store.ConstraintNotNull, "due_date")
	case !d.Type.IsValid():
		return store.NewConstraintError(store.ConstraintCheck, "documents_type_check")
	case !d.Amount.IsPositive():
		return store.NewConstraintError(store.ConstraintCheck, "documents_amount_check")
	}
	switch d.Status {
	case models.DocumentOpen, models.DocumentPaid, models.DocumentOverdue:
	default:
		return store.NewConstraintError(store.ConstraintCheck, "documents_status_check")
	}

	if id, ok := d.Party.SupplierID(); ok {
		if d.Type != models.DocumentPayable {
			return store.NewConstraintError(store.ConstraintCheck, "documents_party_check")
		}
		if !inOrg(s.b.suppliers, id, d.OrgID, func(s *models.Supplier) uuid.UUID { return s.OrgID }) {
			return store.NewConstraintError(store.ConstraintForeignKey, "documents_supplier_id_fkey")
		}
	}
	if id, ok := d.Party.MemberID(); ok {
		if d.Type != models.DocumentReceivable {
			return store.NewConstraintError(store.ConstraintCheck, "documents_party_check")
		}
		if !inOrg(s.b.members, id, d.OrgID, func(m *models.Member) uuid.UUID { return m.OrgID }) {
			return store.NewConstraintError(store.ConstraintForeignKey, "documents_member_id_fkey")
		}
	}
	if d.CategoryID != nil && !inOrg(s.b.categories, *d.CategoryID, d.OrgID, func(c *models.Category) uuid.UUID { return c.OrgID }) {
		return store.NewConstraintError(store.ConstraintForeignKey, "documents_category_id_fkey")
	}
	return nil
}
