package app

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/contacerta/contacerta/internal/catalog"
	"github.com/contacerta/contacerta/internal/logger"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/report"
	"github.com/contacerta/contacerta/internal/view"
)

// run executes one mutation of the active organization, logging its outcome.
func (a *App) run(ctx context.Context, name string, op func(ctx context.Context, orgID uuid.UUID) error) error {
	orgID, err := a.ActiveOrgID()
	if err != nil {
		return err
	}
	done := logger.Operation(ctx, name, orgID.String())
	err = op(a.Session.Context(ctx), orgID)
	done(err)
	return err
}

// without returns the items whose id is not id.
func without[T any](id uuid.UUID, key func(T) uuid.UUID) func([]T) []T {
	return func(items []T) []T {
		return slices.DeleteFunc(items, func(item T) bool { return key(item) == id })
	}
}

// deleteOptimistic removes the row from the view first and restores it if the delete fails.
func deleteOptimistic[T, Q any](ctx context.Context, a *App, l *view.List[T, Q], name string, id uuid.UUID, key func(T) uuid.UUID, del func(ctx context.Context, orgID, id uuid.UUID) error) error {
	return a.run(ctx, name, func(ctx context.Context, orgID uuid.UUID) error {
		return l.MutateOptimistic(ctx, without(id, key), func(ctx context.Context) error {
			return del(ctx, orgID, id)
		})
	})
}

// SaveMember creates or updates a member of the active organization.
func (a *App) SaveMember(ctx context.Context, m *models.Member) error {
	return a.run(ctx, "members.save", func(ctx context.Context, orgID uuid.UUID) error {
		m.OrgID = orgID
		return a.Members.MutateRefetch(ctx, func(ctx context.Context) error {
			return a.Catalog.SaveMember(ctx, m)
		})
	})
}

// DeleteMember deletes a member of the active organization.
func (a *App) DeleteMember(ctx context.Context, memberID uuid.UUID) error {
	return deleteOptimistic(ctx, a, a.Members, "members.delete", memberID,
		func(m *models.Member) uuid.UUID { return m.ID }, a.Catalog.DeleteMember)
}

// SetMemberMinistries replaces the ministries of a member.
func (a *App) SetMemberMinistries(ctx context.Context, memberID uuid.UUID, ministryIDs []uuid.UUID) error {
	return a.run(ctx, "members.ministries", func(ctx context.Context, orgID uuid.UUID) error {
		return a.Catalog.SetMemberMinistries(ctx, orgID, memberID, ministryIDs)
	})
}

// SaveMinistry creates or updates a ministry. Cost centers are reloaded since a
// rename carries over to the ministry's cost center.
func (a *App) SaveMinistry(ctx context.Context, m *models.Ministry) error {
	return a.run(ctx, "ministries.save", func(ctx context.Context, orgID uuid.UUID) error {
		m.OrgID = orgID
		renaming := m.ID != uuid.Nil
		err := a.Ministries.MutateRefetch(ctx, func(ctx context.Context) error {
			return a.Catalog.SaveMinistry(ctx, m)
		})
		if err == nil && renaming {
			if _, lerr := a.CostCenters.Load(ctx); lerr != nil && !errors.Is(lerr, view.ErrSuperseded) {
				log.Warn().Err(lerr).Str("org_id", orgID.String()).Msg("Reload of cost centers after ministry rename failed")
			}
		}
		return err
	})
}

// DeleteMinistry deletes a ministry.
func (a *App) DeleteMinistry(ctx context.Context, ministryID uuid.UUID) error {
	return deleteOptimistic(ctx, a, a.Ministries, "ministries.delete", ministryID,
		func(m *models.Ministry) uuid.UUID { return m.ID }, a.Catalog.DeleteMinistry)
}

// SaveSupplier creates or updates a supplier.
func (a *App) SaveSupplier(ctx context.Context, s *models.Supplier) error {
	return a.run(ctx, "suppliers.save", func(ctx context.Context, orgID uuid.UUID) error {
		s.OrgID = orgID
		return a.Suppliers.MutateRefetch(ctx, func(ctx context.Context) error {
			return a.Catalog.SaveSupplier(ctx, s)
		})
	})
}

// DeleteSupplier deletes a supplier.
func (a *App) DeleteSupplier(ctx context.Context, supplierID uuid.UUID) error {
	return deleteOptimistic(ctx, a, a.Suppliers, "suppliers.delete", supplierID,
		func(s *models.Supplier) uuid.UUID { return s.ID }, a.Catalog.DeleteSupplier)
}

// SaveCostCenter creates or updates a cost center from d.
func (a *App) SaveCostCenter(ctx context.Context, d catalog.CostCenterDraft) (*models.CostCenter, error) {
	var saved *models.CostCenter
	err := a.run(ctx, "cost_centers.save", func(ctx context.Context, orgID uuid.UUID) error {
		d.OrgID = orgID
		return a.CostCenters.MutateRefetch(ctx, func(ctx context.Context) error {
			cc, err := a.Catalog.SaveCostCenter(ctx, d)
			saved = cc
			return err
		})
	})
	return saved, err
}

// DeleteCostCenter deletes a cost center. Its documents stay.
func (a *App) DeleteCostCenter(ctx context.Context, costCenterID uuid.UUID) error {
	return deleteOptimistic(ctx, a, a.CostCenters, "cost_centers.delete", costCenterID,
		func(cc *models.CostCenter) uuid.UUID { return cc.ID }, a.Catalog.DeleteCostCenter)
}

// CreateCategory creates a category.
func (a *App) CreateCategory(ctx context.Context, c *models.Category) error {
	return a.run(ctx, "categories.create", func(ctx context.Context, orgID uuid.UUID) error {
		c.OrgID = orgID
		return a.Categories.MutateRefetch(ctx, func(ctx context.Context) error {
			return a.Catalog.CreateCategory(ctx, c)
		})
	})
}

// SeedCategories creates the default finance categories that are missing.
func (a *App) SeedCategories(ctx context.Context) (int, error) {
	var n int
	err := a.run(ctx, "categories.seed", func(ctx context.Context, orgID uuid.UUID) error {
		return a.Categories.MutateRefetch(ctx, func(ctx context.Context) error {
			var err error
			n, err = a.Catalog.SeedDefaultCategories(ctx, orgID)
			return err
		})
	})
	return n, err
}

// DeleteCategory deletes a category.
func (a *App) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	return deleteOptimistic(ctx, a, a.Categories, "categories.delete", categoryID,
		func(c *models.Category) uuid.UUID { return c.ID }, a.Catalog.DeleteCategory)
}

// SaveAsset creates or updates an asset.
func (a *App) SaveAsset(ctx context.Context, asset *models.Asset) error {
	return a.run(ctx, "assets.save", func(ctx context.Context, orgID uuid.UUID) error {
		asset.OrgID = orgID
		return a.Assets.MutateRefetch(ctx, func(ctx context.Context) error {
			return a.Catalog.SaveAsset(ctx, asset)
		})
	})
}

// DeleteAsset deletes an asset.
func (a *App) DeleteAsset(ctx context.Context, assetID uuid.UUID) error {
	return deleteOptimistic(ctx, a, a.Assets, "assets.delete", assetID,
		func(asset *models.Asset) uuid.UUID { return asset.ID }, a.Catalog.DeleteAsset)
}

// SaveDocument creates or updates a payable or receivable.
func (a *App) SaveDocument(ctx context.Context, in catalog.DocumentInput) (*models.Document, error) {
	var saved *models.Document
	err := a.run(ctx, "documents.save", func(ctx context.Context, orgID uuid.UUID) error {
		in.OrgID = orgID
		return a.Documents.MutateRefetch(ctx, func(ctx context.Context) error {
			doc, err := a.Catalog.SaveDocument(ctx, in)
			saved = doc
			return err
		})
	})
	return saved, err
}

// MarkPaid shows the document as paid right away and reverts if the update fails.
func (a *App) MarkPaid(ctx context.Context, documentID uuid.UUID, paidOn time.Time) error {
	y, m, d := paidOn.Date()
	paidOn = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	return a.run(ctx, "documents.pay", func(ctx context.Context, orgID uuid.UUID) error {
		change := func(docs []*models.Document) []*models.Document {
			for i, d := range docs {
				if d.ID == documentID {
					paid := *d
					paid.Status = models.DocumentPaid
					paid.PaymentDate = &paidOn
					docs[i] = &paid
				}
			}
			return docs
		}
		return a.Documents.MutateOptimistic(ctx, change, func(ctx context.Context) error {
			_, err := a.Catalog.MarkPaid(ctx, orgID, documentID, paidOn)
			return err
		})
	})
}

// DeleteDocument deletes a document.
func (a *App) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	return deleteOptimistic(ctx, a, a.Documents, "documents.delete", documentID,
		func(d *models.Document) uuid.UUID { return d.ID }, a.Catalog.DeleteDocument)
}

// Report aggregates the active organization's documents.
func (a *App) Report(ctx context.Context, opts report.Options) (report.Summary, error) {
	var summary report.Summary
	err := a.run(ctx, "report", func(ctx context.Context, orgID uuid.UUID) error {
		var err error
		summary, err = a.Catalog.Report(ctx, orgID, opts)
		return err
	})
	return summary, err
}
