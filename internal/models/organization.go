package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant. Every church-specific record carries the
// organization id it belongs to.
type Organization struct {
	OrgID     uuid.UUID
	Name      string
	TaxID     *string // CNPJ, optional
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrgAccess is one entry of the organization directory: an organization the
// identity can access and the role it holds there.
type OrgAccess struct {
	OrgID uuid.UUID
	Name  string
	Role  Role
}

// ActiveOrg is the client-side pointer to the organization currently being viewed.
// It is a convenience cache, never authoritative.
type ActiveOrg struct {
	OrgID uuid.UUID `json:"orgId"`
	Name  string    `json:"orgName"`
}

// IsZero reports whether the pointer is unset.
func (a ActiveOrg) IsZero() bool {
	return a.OrgID == uuid.Nil
}
