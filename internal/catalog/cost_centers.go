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

// MsgSelectMinistry is shown when a ministry cost center has no ministry.
const MsgSelectMinistry = "Select a ministry."

var costCenterMessages = messages{
	store.CodeNotNull:              "Required data is missing.",
	store.CodeForeignKey:           "Invalid reference.",
	store.CodeUnique:               "A cost center already exists for this ministry.",
	store.CodeCheck:                MsgSelectMinistry,
	"cost_centers_kind_check":      "Select a valid type.",
	"cost_centers_ministry_id_key": "A cost center already exists for this ministry.",
}

// CostCenterDraft is the editable form of a cost center.
type CostCenterDraft struct {
	ID         uuid.UUID
	OrgID      uuid.UUID
	Kind       models.CostCenterKind
	Name       string
	MinistryID *uuid.UUID
}

// DraftFrom returns a draft for editing cc.
func DraftFrom(cc *models.CostCenter) CostCenterDraft {
	d := CostCenterDraft{ID: cc.ID, OrgID: cc.OrgID, Kind: cc.Kind, Name: cc.Name}
	if cc.MinistryID != nil {
		id := *cc.MinistryID
		d.MinistryID = &id
	}
	if cc.Kind == models.CostCenterMinistry {
		d.Name = ""
	}
	return d
}

// SetKind switches the kind and clears the field the new kind does not use:
// the free-text name when entering MINISTRY, the ministry when leaving it.
func (d *CostCenterDraft) SetKind(kind models.CostCenterKind) {
	if kind == d.Kind {
		return
	}
	if kind == models.CostCenterMinistry {
		d.Name = ""
	} else {
		d.MinistryID = nil
	}
	d.Kind = kind
}

// ListCostCenters returns cost centers of orgID sorted by name.
func (s *Service) ListCostCenters(ctx context.Context, orgID uuid.UUID, opts store.ListCostCentersOptions) ([]*models.CostCenter, error) {
	centers, err := s.stores.CostCenters.List(ctx, orgID, opts)
	return centers, apperr.FromStore(err)
}

// SaveCostCenter creates or updates the cost center described by d. A MINISTRY
// cost center takes the ministry's name.
func (s *Service) SaveCostCenter(ctx context.Context, d CostCenterDraft) (*models.CostCenter, error) {
	cc := &models.CostCenter{
		ID:         d.ID,
		OrgID:      d.OrgID,
		Kind:       d.Kind,
		Name:       strings.TrimSpace(d.Name),
		MinistryID: d.MinistryID,
	}

	if err := s.check(cc); err != nil {
		return nil, err
	}

	switch {
	case cc.Kind == models.CostCenterMinistry && cc.MinistryID != nil:
		m, err := s.stores.Ministries.Get(ctx, cc.OrgID, *cc.MinistryID)
		if errors.Is(err, store.ErrMinistryNotFound) {
			return nil, apperr.Validation("Ministry", MsgSelectMinistry)
		}
		if err != nil {
			return nil, apperr.FromStore(err)
		}
		cc.Name = m.Name
	case cc.Kind != models.CostCenterMinistry:
		cc.MinistryID = nil
		if cc.Name == "" {
			return nil, apperr.Validation("Name", "Name is required.")
		}
	}
	// a MINISTRY cost center without a ministry is left to the backend's check

	var err error
	if cc.ID == uuid.Nil {
		err = s.stores.CostCenters.Create(ctx, cc)
	} else {
		err = s.stores.CostCenters.Update(ctx, cc)
	}
	if err != nil {
		return nil, translate(err, costCenterMessages)
	}
	return cc, nil
}

// DeleteCostCenter deletes a cost center. Its documents are kept and keep pointing at it.
func (s *Service) DeleteCostCenter(ctx context.Context, orgID, costCenterID uuid.UUID) error {
	return translate(s.stores.CostCenters.Delete(ctx, orgID, costCenterID), costCenterMessages)
}

// DescribeCostCenterDeletion explains what deleting the cost center does.
func (s *Service) DescribeCostCenterDeletion(ctx context.Context, orgID, costCenterID uuid.UUID) (string, error) {
	cc, err := s.stores.CostCenters.Get(ctx, orgID, costCenterID)
	if err != nil {
		return "", apperr.FromStore(err)
	}
	n, err := s.stores.Documents.CountByCostCenter(ctx, orgID, costCenterID)
	if err != nil {
		return "", apperr.FromStore(err)
	}
	if n == 0 {
		return fmt.Sprintf("Delete cost center %s? No documents use it.", cc.Name), nil
	}
	return fmt.Sprintf("Delete cost center %s? %s will be left without a cost center.", cc.Name, plural(n, "document")), nil
}
