package models

import (
	"time"

	"github.com/google/uuid"
)

// PersonKind distinguishes individuals (PF) from companies (PJ).
type PersonKind string

const (
	PersonIndividual PersonKind = "PF"
	PersonCompany    PersonKind = "PJ"
)

// SupplierStatus is whether a supplier can still be used on new documents.
type SupplierStatus string

const (
	SupplierActive   SupplierStatus = "ACTIVE"
	SupplierInactive SupplierStatus = "INACTIVE"
)

// Supplier is a vendor that payable documents can refer to.
type Supplier struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	Kind       PersonKind     `validate:"required,oneof=PF PJ" label:"Type"`
	Name       string         `validate:"required,max=200" label:"Name"`
	TaxID      *string        `validate:"omitempty,taxid" label:"CPF/CNPJ"` // digits only
	Email      *string        `validate:"omitempty,email,max=200" label:"Email"`
	Phone      *string        `validate:"omitempty,max=30" label:"Phone"`
	CategoryID *uuid.UUID     `label:"Category"`
	Address    *Address       `label:"Address"`
	BankInfo   *BankInfo      `label:"Bank details"`
	Status     SupplierStatus `validate:"required,oneof=ACTIVE INACTIVE" label:"Status"`
	Notes      *string        `validate:"omitempty,max=2000" label:"Notes"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive returns true if the supplier can be selected on new documents.
func (s *Supplier) IsActive() bool {
	return s.Status == SupplierActive
}
