package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// CategoryStore implements store.CategoryStore on a Backend.
type CategoryStore struct {
	b *Backend
}

var _ store.CategoryStore = (*CategoryStore)(nil)

func (s *CategoryStore) List(ctx context.Context, orgID uuid.UUID, opts store.ListCategoriesOptions) ([]*models.Category, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.b.visible(ctx, orgID) {
		return nil, nil
	}

	var result []*models.Category
	for _, c := range s.b.categories {
		if c.OrgID != orgID || (opts.Scope != "" && c.Scope != opts.Scope) {
			continue
		}
		if opts.FinanceKind != "" && (c.FinanceKind == nil || *c.FinanceKind != opts.FinanceKind) {
			continue
		}
		if !matches(opts.Search, c.Name) {
			continue
		}
		clone := *c
		result = append(result, &clone)
	}
	sortByName(result, func(c *models.Category) string { return c.Name })
	return limit(result, opts.Limit), nil
}

func (s *CategoryStore) Get(ctx context.Context, orgID, categoryID uuid.UUID) (*models.Category, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	c, ok := s.b.categories[categoryID]
	if !ok || c.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return nil, store.ErrCategoryNotFound
	}
	clone := *c
	return &clone, nil
}

func (s *CategoryStore) FindByName(ctx context.Context, orgID uuid.UUID, scope models.CategoryScope, kind *models.FinanceKind, name string) (*models.Category, error) {
	s.b.mu.RLock()
	defer s.b.mu.RUnlock()

	if !s.b.visible(ctx, orgID) {
		return nil, store.ErrCategoryNotFound
	}
	if c := s.find(orgID, scope, kind, name); c != nil {
		clone := *c
		return &clone, nil
	}
	return nil, store.ErrCategoryNotFound
}

func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if err := s.b.checkWrite(ctx, category.OrgID); err != nil {
		return err
	}
	if strings.TrimSpace(category.Name) == "" {
		return store.NewConstraintError(store.ConstraintNotNull, "name")
	}
	if (category.Scope == models.CategoryFinance) != (category.FinanceKind != nil) {
		return store.NewConstraintError(store.ConstraintCheck, "categories_finance_kind_check")
	}
	if s.find(category.OrgID, category.Scope, category.FinanceKind, category.Name) != nil {
		return store.NewConstraintError(store.ConstraintUnique, "categories_org_scope_kind_name_key")
	}

	if category.ID == uuid.Nil {
		category.ID = newID()
	}
	category.CreatedAt = s.b.now()
	clone := *category
	s.b.categories[category.ID] = &clone
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, orgID, categoryID uuid.UUID) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	c, ok := s.b.categories[categoryID]
	if !ok || c.OrgID != orgID || !s.b.visible(ctx, orgID) {
		return store.ErrCategoryNotFound
	}

	// on delete set null
	for _, d := range s.b.documents {
		if d.CategoryID != nil && *d.CategoryID == categoryID {
			d.CategoryID = nil
		}
	}
	for _, sup := range s.b.suppliers {
		if sup.CategoryID != nil && *sup.CategoryID == categoryID {
			sup.CategoryID = nil
		}
	}
	for _, a := range s.b.assets {
		if a.CategoryID != nil && *a.CategoryID == categoryID {
			a.CategoryID = nil
		}
	}
	delete(s.b.categories, categoryID)
	return nil
}

// find looks up a category by its unique key. Caller must hold s.b.mu.
func (s *CategoryStore) find(orgID uuid.UUID, scope models.CategoryScope, kind *models.FinanceKind, name string) *models.Category {
	name = strings.TrimSpace(name)
	for _, c := range s.b.categories {
		if c.OrgID != orgID || c.Scope != scope || !strings.EqualFold(c.Name, name) {
			continue
		}
		if (c.FinanceKind == nil) != (kind == nil) {
			continue
		}
		if kind != nil && *c.FinanceKind != *kind {
			continue
		}
		return c
	}
	return nil
}
