package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/contacerta/contacerta/internal/apperr"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

var categoryMessages = messages{
	store.CodeNotNull: "Name is required.",
	store.CodeUnique:  "A category with this name already exists.",
	store.CodeCheck:   "Finance categories need a kind (income or expense); other categories must not have one.",
}

// ListCategories returns categories of orgID.
func (s *Service) ListCategories(ctx context.Context, orgID uuid.UUID, opts store.ListCategoriesOptions) ([]*models.Category, error) {
	categories, err := s.stores.Categories.List(ctx, orgID, opts)
	return categories, apperr.FromStore(err)
}

// CreateCategory creates a category. Finance categories need a finance kind, others must not have one.
func (s *Service) CreateCategory(ctx context.Context, c *models.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := s.check(c); err != nil {
		return err
	}
	if (c.Scope == models.CategoryFinance) != (c.FinanceKind != nil) {
		return apperr.Validation("Kind", categoryMessages[store.CodeCheck])
	}
	return translate(s.stores.Categories.Create(ctx, c), categoryMessages)
}

// EnsureFinanceCategory returns the finance category named name, creating it when missing.
// A concurrent creation of the same category is resolved by reading the winner's row.
func (s *Service) EnsureFinanceCategory(ctx context.Context, orgID uuid.UUID, kind models.FinanceKind, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("Name", "Name is required.")
	}

	existing, err := s.stores.Categories.FindByName(ctx, orgID, models.CategoryFinance, &kind, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrCategoryNotFound) {
		return nil, apperr.FromStore(err)
	}

	c := &models.Category{OrgID: orgID, Name: name, Scope: models.CategoryFinance, FinanceKind: &kind}
	err = s.stores.Categories.Create(ctx, c)
	if store.IsConstraint(err, store.ConstraintUnique) {
		existing, err = s.stores.Categories.FindByName(ctx, orgID, models.CategoryFinance, &kind, name)
		if err != nil {
			return nil, apperr.FromStore(err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, translate(err, categoryMessages)
	}
	return c, nil
}

// SeedDefaultCategories creates the default payable and receivable categories that
// are missing and returns how many were created.
func (s *Service) SeedDefaultCategories(ctx context.Context, orgID uuid.UUID) (int, error) {
	before, err := s.stores.Categories.List(ctx, orgID, store.ListCategoriesOptions{Scope: models.CategoryFinance})
	if err != nil {
		return 0, apperr.FromStore(err)
	}

	seeds := []struct {
		kind  models.FinanceKind
		names []string
	}{
		{models.FinanceExpense, models.DefaultPayableCategories},
		{models.FinanceIncome, models.DefaultReceivableCategories},
	}
	for _, seed := range seeds {
		for _, name := range seed.names {
			if _, err := s.EnsureFinanceCategory(ctx, orgID, seed.kind, name); err != nil {
				return 0, err
			}
		}
	}

	after, err := s.stores.Categories.List(ctx, orgID, store.ListCategoriesOptions{Scope: models.CategoryFinance})
	if err != nil {
		return 0, apperr.FromStore(err)
	}
	return len(after) - len(before), nil
}

// DeleteCategory deletes a category. Documents, suppliers and assets using it keep no category.
func (s *Service) DeleteCategory(ctx context.Context, orgID, categoryID uuid.UUID) error {
	return translate(s.stores.Categories.Delete(ctx, orgID, categoryID), categoryMessages)
}

// DescribeCategoryDeletion explains what deleting the category does.
func (s *Service) DescribeCategoryDeletion(ctx context.Context, orgID, categoryID uuid.UUID) (string, error) {
	c, err := s.stores.Categories.Get(ctx, orgID, categoryID)
	if err != nil {
		return "", apperr.FromStore(err)
	}
	if c.Scope != models.CategoryFinance {
		return fmt.Sprintf("Delete category %s? Items using it are left uncategorized.", c.Name), nil
	}

	docs, err := s.documentsOf(ctx, orgID, func(d *models.Document) bool {
		return d.CategoryID != nil && *d.CategoryID == categoryID
	})
	if err != nil {
		return "", err
	}
	if docs == 0 {
		return fmt.Sprintf("Delete category %s?", c.Name), nil
	}
	return fmt.Sprintf("Delete category %s? %s will be left without a category.", c.Name, plural(docs, "document")), nil
}

// requireCategory checks that categoryID is a category of scope (and kind, if given) in orgID.
func (s *Service) requireCategory(ctx context.Context, orgID, categoryID uuid.UUID, scope models.CategoryScope, kind *models.FinanceKind) error {
	c, err := s.stores.Categories.Get(ctx, orgID, categoryID)
	if errors.Is(err, store.ErrCategoryNotFound) {
		return apperr.Validation("Category", "Select a valid category.")
	}
	if err != nil {
		return apperr.FromStore(err)
	}
	if c.Scope != scope {
		return apperr.Validation("Category", "Select a valid category.")
	}
	if kind != nil && (c.FinanceKind == nil || *c.FinanceKind != *kind) {
		if *kind == models.FinanceIncome {
			return apperr.Validation("Category", "Receivables need an income category.")
		}
		return apperr.Validation("Category", "Payables need an expense category.")
	}
	return nil
}
