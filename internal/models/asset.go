package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetStatus is the current condition of a physical asset.
type AssetStatus string

const (
	AssetInUse         AssetStatus = "IN_USE"
	AssetInStorage     AssetStatus = "IN_STORAGE"
	AssetInMaintenance AssetStatus = "IN_MAINTENANCE"
	AssetDisposed      AssetStatus = "DISPOSED"
)

var assetStatusLabels = map[AssetStatus]string{
	AssetInUse:         "In use",
	AssetInStorage:     "In storage",
	AssetInMaintenance: "In maintenance",
	AssetDisposed:      "Disposed",
}

// Label returns a display name for the status.
func (s AssetStatus) Label() string {
	if l, ok := assetStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Asset is a physical item owned by the organization (patrimônio).
type Asset struct {
	ID               uuid.UUID
	OrgID            uuid.UUID
	Code             string      `validate:"required,max=40" label:"Code"`
	Name             string      `validate:"required,max=200" label:"Name"`
	Description      *string     `validate:"omitempty,max=1000" label:"Description"`
	CategoryID       *uuid.UUID  `label:"Category"`
	SupplierID       *uuid.UUID  `label:"Supplier"`
	Location         *string     `validate:"omitempty,max=200" label:"Location"`
	Status           AssetStatus `validate:"required,oneof=IN_USE IN_STORAGE IN_MAINTENANCE DISPOSED" label:"Status"`
	AcquiredAt       *time.Time  `label:"Acquisition date"`
	AcquisitionValue decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AssetCode derives the display code of an asset from its id: PAT-<first 8 hex digits>.
func AssetCode(id uuid.UUID) string {
	return "PAT-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
