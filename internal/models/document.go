package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType says whether money is owed by or to the organization.
type DocumentType string

const (
	DocumentPayable    DocumentType = "PAYABLE"
	DocumentReceivable DocumentType = "RECEIVABLE"
)

// IsValid returns true if t is a known type.
func (t DocumentType) IsValid() bool {
	return t == DocumentPayable || t == DocumentReceivable
}

// FinanceKind returns the category kind a document of this type must use.
func (t DocumentType) FinanceKind() FinanceKind {
	if t == DocumentReceivable {
		return FinanceIncome
	}
	return FinanceExpense
}

// DocumentStatus is the payment state of a document.
type DocumentStatus string

const (
	DocumentOpen    DocumentStatus = "OPEN"
	DocumentPaid    DocumentStatus = "PAID"
	DocumentOverdue DocumentStatus = "OVERDUE"
)

// PartyKind tags the counterparty held by a DocumentParty.
type PartyKind uint8

const (
	PartyNone PartyKind = iota
	PartySupplier
	PartyMember
)

// DocumentParty is the counterparty of a document: a supplier, a member or nobody.
// It can never hold both.
type DocumentParty struct {
	kind PartyKind
	id   uuid.UUID
}

// SupplierParty returns a party referring to a supplier.
func SupplierParty(id uuid.UUID) DocumentParty {
	return DocumentParty{kind: PartySupplier, id: id}
}

// MemberParty returns a party referring to a member.
func MemberParty(id uuid.UUID) DocumentParty {
	return DocumentParty{kind: PartyMember, id: id}
}

// NoParty returns the empty party.
func NoParty() DocumentParty {
	return DocumentParty{}
}

// Kind returns which counterparty is held.
func (p DocumentParty) Kind() PartyKind { return p.kind }

// SupplierID returns the supplier id if the party is a supplier.
func (p DocumentParty) SupplierID() (uuid.UUID, bool) {
	return p.id, p.kind == PartySupplier
}

// MemberID returns the member id if the party is a member.
func (p DocumentParty) MemberID() (uuid.UUID, bool) {
	return p.id, p.kind == PartyMember
}

// Columns splits the party into the nullable supplier/member columns used by the backend.
func (p DocumentParty) Columns() (supplierID, memberID *uuid.UUID) {
	id := p.id
	switch p.kind {
	case PartySupplier:
		return &id, nil
	case PartyMember:
		return nil, &id
	}
	return nil, nil
}

// PartyFromColumns rebuilds a party from backend columns.
func PartyFromColumns(supplierID, memberID *uuid.UUID) DocumentParty {
	switch {
	case supplierID != nil:
		return SupplierParty(*supplierID)
	case memberID != nil:
		return MemberParty(*memberID)
	}
	return NoParty()
}

// NormalizeParty picks the counterparty a document of type t may hold.
// Payables keep the supplier and drop the member; receivables do the opposite.
func NormalizeParty(t DocumentType, supplierID, memberID *uuid.UUID) DocumentParty {
	switch {
	case t == DocumentPayable && supplierID != nil:
		return SupplierParty(*supplierID)
	case t == DocumentReceivable && memberID != nil:
		return MemberParty(*memberID)
	}
	return NoParty()
}

// Document is a payable or receivable.
type Document struct {
	ID           uuid.UUID
	OrgID        uuid.UUID
	Type         DocumentType    `validate:"required,oneof=PAYABLE RECEIVABLE" label:"Type"`
	Description  string          `validate:"required,max=300" label:"Description"`
	Amount       decimal.Decimal `label:"Amount"`
	IssueDate    time.Time       `validate:"required" label:"Issue date"`
	DueDate      time.Time       `validate:"required" label:"Due date"`
	PaymentDate  *time.Time      `label:"Payment date"`
	Status       DocumentStatus  `validate:"required,oneof=OPEN PAID OVERDUE" label:"Status"`
	CategoryID   *uuid.UUID
	CostCenterID uuid.UUID // may outlive the cost center it points to
	Party        DocumentParty
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EffectiveStatus reports OVERDUE for open documents past their due date.
func (d *Document) EffectiveStatus(now time.Time) DocumentStatus {
	if d.Status == DocumentOpen && dateOnly(now).After(dateOnly(d.DueDate)) {
		return DocumentOverdue
	}
	return d.Status
}

func dateOnly(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
