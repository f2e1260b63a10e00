package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/contacerta/contacerta/internal/apperr"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/money"
	"github.com/contacerta/contacerta/internal/report"
	"github.com/contacerta/contacerta/internal/store"
)

var documentMessages = messages{
	store.CodeNotNull:            "Required data is missing.",
	"documents_amount_check":     "Amount must be greater than zero.",
	"documents_party_check":      "A document refers to either a supplier or a member, not both.",
	"documents_supplier_id_fkey": "Select a valid supplier.",
	"documents_member_id_fkey":   "Select a valid member.",
	"documents_category_id_fkey": "Select a valid category.",
	store.CodeCheck:              "Some fields have invalid values.",
}

// DocumentInput is the form of a payable or receivable. SupplierID and MemberID
// may both be set; the one the document type does not use is dropped.
type DocumentInput struct {
	ID           uuid.UUID
	OrgID        uuid.UUID
	Type         models.DocumentType
	Description  string
	Amount       decimal.Decimal
	IssueDate    *time.Time // defaults to today
	DueDate      time.Time
	PaymentDate  *time.Time
	Status       models.DocumentStatus
	CategoryID   *uuid.UUID
	CostCenterID uuid.UUID
	SupplierID   *uuid.UUID
	MemberID     *uuid.UUID
}

// ListDocuments returns documents of orgID, latest due date first.
func (s *Service) ListDocuments(ctx context.Context, orgID uuid.UUID, opts store.ListDocumentsOptions) ([]*models.Document, error) {
	opts.Search = strings.TrimSpace(opts.Search)
	docs, err := s.stores.Documents.List(ctx, orgID, opts)
	return docs, apperr.FromStore(err)
}

// SaveDocument creates or updates a document from in.
func (s *Service) SaveDocument(ctx context.Context, in DocumentInput) (*models.Document, error) {
	doc := &models.Document{
		ID:           in.ID,
		OrgID:        in.OrgID,
		Type:         in.Type,
		Description:  strings.TrimSpace(in.Description),
		Amount:       in.Amount.Round(2),
		DueDate:      in.DueDate,
		PaymentDate:  in.PaymentDate,
		Status:       in.Status,
		CategoryID:   in.CategoryID,
		CostCenterID: in.CostCenterID,
		Party:        models.NormalizeParty(in.Type, in.SupplierID, in.MemberID),
	}
	if in.IssueDate != nil {
		doc.IssueDate = *in.IssueDate
	} else {
		doc.IssueDate = s.today()
	}
	if doc.Status == "" {
		doc.Status = models.DocumentOpen
	}
	if doc.Status == models.DocumentPaid && doc.PaymentDate == nil {
		today := s.today()
		doc.PaymentDate = &today
	}

	if err := s.check(doc); err != nil {
		return nil, err
	}
	if !doc.Amount.IsPositive() {
		return nil, apperr.Validation("Amount", documentMessages["documents_amount_check"])
	}
	if doc.CostCenterID == uuid.Nil {
		return nil, apperr.Validation("Cost center", "Select a cost center.")
	}

	creating := doc.ID == uuid.Nil
	checkCostCenter := creating
	if !creating {
		existing, err := s.stores.Documents.Get(ctx, doc.OrgID, doc.ID)
		if err != nil {
			return nil, apperr.FromStore(err)
		}
		// an existing document may keep a cost center that was deleted since
		checkCostCenter = existing.CostCenterID != doc.CostCenterID
	}
	if checkCostCenter {
		_, err := s.stores.CostCenters.Get(ctx, doc.OrgID, doc.CostCenterID)
		if errors.Is(err, store.ErrCostCenterNotFound) {
			return nil, apperr.Validation("Cost center", "Select a valid cost center.")
		}
		if err != nil {
			return nil, apperr.FromStore(err)
		}
	}
	if doc.CategoryID != nil {
		kind := doc.Type.FinanceKind()
		if err := s.requireCategory(ctx, doc.OrgID, *doc.CategoryID, models.CategoryFinance, &kind); err != nil {
			return nil, err
		}
	}

	var err error
	if creating {
		err = s.stores.Documents.Create(ctx, doc)
	} else {
		err = s.stores.Documents.Update(ctx, doc)
	}
	if err != nil {
		return nil, translate(err, documentMessages)
	}
	return doc, nil
}

// MarkPaid records the payment of an open document on paidOn.
func (s *Service) MarkPaid(ctx context.Context, orgID, documentID uuid.UUID, paidOn time.Time) (*models.Document, error) {
	doc, err := s.stores.Documents.Get(ctx, orgID, documentID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	if doc.Status == models.DocumentPaid {
		return nil, apperr.New(apperr.KindConflict, "This document is already paid.")
	}

	y, m, d := paidOn.Date()
	paid := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	doc.Status = models.DocumentPaid
	doc.PaymentDate = &paid

	if err := s.stores.Documents.Update(ctx, doc); err != nil {
		return nil, translate(err, documentMessages)
	}
	return doc, nil
}

// DeleteDocument deletes a document.
func (s *Service) DeleteDocument(ctx context.Context, orgID, documentID uuid.UUID) error {
	return translate(s.stores.Documents.Delete(ctx, orgID, documentID), documentMessages)
}

// DescribeDocumentDeletion explains what deleting the document does.
func (s *Service) DescribeDocumentDeletion(ctx context.Context, orgID, documentID uuid.UUID) (string, error) {
	doc, err := s.stores.Documents.Get(ctx, orgID, documentID)
	if err != nil {
		return "", apperr.FromStore(err)
	}
	kind := "payable"
	if doc.Type == models.DocumentReceivable {
		kind = "receivable"
	}
	msg := fmt.Sprintf("Delete the %s %q of %s due %s?", kind, doc.Description, money.FormatBRL(doc.Amount), doc.DueDate.Format("02/01/2006"))
	if doc.Status == models.DocumentPaid {
		msg += " It is already paid and will disappear from cash reports."
	}
	return msg, nil
}

// Report aggregates the documents of orgID over opts.
func (s *Service) Report(ctx context.Context, orgID uuid.UUID, opts report.Options) (report.Summary, error) {
	docs, err := s.stores.Documents.List(ctx, orgID, store.ListDocumentsOptions{})
	if err != nil {
		return report.Summary{}, apperr.FromStore(err)
	}
	centers, err := s.stores.CostCenters.List(ctx, orgID, store.ListCostCentersOptions{})
	if err != nil {
		return report.Summary{}, apperr.FromStore(err)
	}
	return report.Aggregate(docs, centers, opts), nil
}
