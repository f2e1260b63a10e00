package models

import (
	"time"

	"github.com/google/uuid"
)

// CostCenterKind is the budget bucket type of a cost center.
type CostCenterKind string

const (
	CostCenterMinistry CostCenterKind = "MINISTRY"
	CostCenterEvent    CostCenterKind = "EVENT"
	CostCenterGroup    CostCenterKind = "GROUP"
)

// IsValid returns true if k is a known kind.
func (k CostCenterKind) IsValid() bool {
	switch k {
	case CostCenterMinistry, CostCenterEvent, CostCenterGroup:
		return true
	}
	return false
}

// CostCenter is a budget bucket documents are allocated to.
//
// A MINISTRY cost center is bound one-to-one to a ministry and takes its name
// from it. EVENT and GROUP cost centers carry a free-text name and no ministry.
type CostCenter struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	Kind       CostCenterKind `validate:"required,oneof=MINISTRY EVENT GROUP" label:"Type"`
	Name       string         `validate:"max=120" label:"Name"`
	MinistryID *uuid.UUID     `label:"Ministry"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
