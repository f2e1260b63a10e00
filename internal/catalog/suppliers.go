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

// DefaultSupplierLimit caps supplier listings that do not set a limit.
const DefaultSupplierLimit = 20

var supplierMessages = messages{
	store.CodeNotNull:            "Name is required.",
	"suppliers_kind_check":       "Select a valid type.",
	"suppliers_status_check":     "Select a valid status.",
	"suppliers_category_id_fkey": "Select a valid category.",
	"documents_supplier_id_fkey": "This supplier is referenced by financial documents and cannot be deleted.",
	"assets_supplier_id_fkey":    "This supplier is referenced by assets and cannot be deleted.",
	store.CodeForeignKey:         "This supplier is still referenced and cannot be deleted.",
}

// ListSuppliers returns suppliers of orgID, at most DefaultSupplierLimit unless opts says otherwise.
func (s *Service) ListSuppliers(ctx context.Context, orgID uuid.UUID, opts store.ListSuppliersOptions) ([]*models.Supplier, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSupplierLimit
	}
	opts.Search = strings.TrimSpace(opts.Search)
	suppliers, err := s.stores.Suppliers.List(ctx, orgID, opts)
	return suppliers, apperr.FromStore(err)
}

// SaveSupplier creates or updates a supplier. The tax id is kept as digits only.
func (s *Service) SaveSupplier(ctx context.Context, sup *models.Supplier) error {
	sup.Name = strings.TrimSpace(sup.Name)
	sup.TaxID = digitsPtr(sup.TaxID)
	sup.Email = trimPtr(sup.Email)
	sup.Phone = trimPtr(sup.Phone)
	sup.Notes = trimPtr(sup.Notes)
	if sup.Address != nil && sup.Address.IsEmpty() {
		sup.Address = nil
	}
	if sup.BankInfo != nil && sup.BankInfo.IsEmpty() {
		sup.BankInfo = nil
	}
	if sup.Kind == "" {
		sup.Kind = models.PersonCompany
	}
	if sup.Status == "" {
		sup.Status = models.SupplierActive
	}

	if err := s.check(sup); err != nil {
		return err
	}
	if sup.CategoryID != nil {
		if err := s.requireCategory(ctx, sup.OrgID, *sup.CategoryID, models.CategorySupplier, nil); err != nil {
			return err
		}
	}

	var err error
	if sup.ID == uuid.Nil {
		err = s.stores.Suppliers.Create(ctx, sup)
	} else {
		err = s.stores.Suppliers.Update(ctx, sup)
	}
	return translate(err, supplierMessages)
}

// DeleteSupplier deletes a supplier no document or asset refers to.
func (s *Service) DeleteSupplier(ctx context.Context, orgID, supplierID uuid.UUID) error {
	return translate(s.stores.Suppliers.Delete(ctx, orgID, supplierID), supplierMessages)
}

// DescribeSupplierDeletion explains what deleting the supplier does.
func (s *Service) DescribeSupplierDeletion(ctx context.Context, orgID, supplierID uuid.UUID) (string, error) {
	sup, err := s.stores.Suppliers.Get(ctx, orgID, supplierID)
	if err != nil {
		return "", apperr.FromStore(err)
	}

	docs, err := s.documentsOf(ctx, orgID, func(d *models.Document) bool {
		id, ok := d.Party.SupplierID()
		return ok && id == supplierID
	})
	if err != nil {
		return "", err
	}
	if docs > 0 {
		return fmt.Sprintf("%s is referenced by %s and cannot be deleted. Mark it inactive instead.", sup.Name, plural(docs, "document")), nil
	}
	return fmt.Sprintf("Delete supplier %s? This cannot be undone.", sup.Name), nil
}
