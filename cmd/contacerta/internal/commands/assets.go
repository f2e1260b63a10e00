package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/money"
	"github.com/contacerta/contacerta/internal/store"
)

// AssetsCmd groups the asset commands.
type AssetsCmd struct {
	List AssetsListCmd `cmd:"" default:"1" help:"List assets"`
	Add  AssetsAddCmd  `cmd:"" help:"Register an asset"`
	Rm   AssetsRmCmd   `cmd:"" help:"Delete an asset"`
}

type AssetsListCmd struct {
	Search string `help:"Match name, code or location" short:"s"`
	Status string `help:"Filter by status" enum:",IN_USE,IN_STORAGE,IN_MAINTENANCE,DISPOSED" default:""`
	Limit  int    `help:"Maximum number of assets" default:"100"`
}

func (c *AssetsListCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.App.Assets.Search(ctx, store.ListAssetsOptions{Search: c.Search, Status: models.AssetStatus(c.Status), Limit: c.Limit})
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Assets of %s:\n", active.Name)
	if len(snap.Items) == 0 {
		fmt.Println("No assets found.")
		return nil
	}
	fmt.Printf("%-36s %-14s %-30s %-15s %16s  %s\n", "Asset ID", "Code", "Name", "Status", "Value", "Location")
	fmt.Println(strings.Repeat("─", 130))
	for _, a := range snap.Items {
		fmt.Printf("%-36s %-14s %-30s %-15s %16s  %s\n", a.ID, a.Code, truncate(a.Name, 30), a.Status.Label(), money.FormatBRL(a.AcquisitionValue), deref(a.Location))
	}
	return nil
}

type AssetsAddCmd struct {
	Name        string `arg:"" help:"Name"`
	Code        string `help:"Asset code (generated when empty)"`
	Description string `help:"Description"`
	Value       string `help:"Acquisition value, e.g. 1.234,56"`
	Status      string `help:"Status" enum:"IN_USE,IN_STORAGE,IN_MAINTENANCE,DISPOSED" default:"IN_USE"`
	Category    string `help:"Asset category id"`
	Supplier    string `help:"Supplier id"`
	Location    string `help:"Where the asset is kept"`
	Acquired    string `help:"Acquisition date (YYYY-MM-DD)"`
}

func (c *AssetsAddCmd) Run(ctx context.Context, globals *Globals) error {
	env, _, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	categoryID, err := parseOptionalID("category", c.Category)
	if err != nil {
		return err
	}
	supplierID, err := parseOptionalID("supplier", c.Supplier)
	if err != nil {
		return err
	}
	acquired, err := parseDate("acquisition date", c.Acquired)
	if err != nil {
		return err
	}
	value := decimal.Zero
	if strings.TrimSpace(c.Value) != "" {
		if value, err = money.ParseCents(c.Value); err != nil {
			return fmt.Errorf("invalid --value %q", c.Value)
		}
	}

	asset := &models.Asset{
		Code:             c.Code,
		Name:             c.Name,
		Description:      optional(c.Description),
		CategoryID:       categoryID,
		SupplierID:       supplierID,
		Location:         optional(c.Location),
		Status:           models.AssetStatus(c.Status),
		AcquiredAt:       acquired,
		AcquisitionValue: value,
	}
	if err := env.App.SaveAsset(ctx, asset); err != nil {
		return userError(err)
	}
	fmt.Printf("Registered asset %s %s (%s)\n", asset.Code, asset.Name, asset.ID)
	return nil
}

type AssetsRmCmd struct {
	ID  string `arg:"" help:"Asset id"`
	Yes bool   `help:"Confirm the deletion" short:"y"`
}

func (c *AssetsRmCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := parseID("asset", c.ID)
	if err != nil {
		return err
	}
	desc, err := env.App.Catalog.DescribeAssetDeletion(env.App.Context(ctx), active.OrgID, id)
	if err != nil {
		return userError(err)
	}
	if err := confirm(desc, c.Yes); err != nil {
		return err
	}
	if err := env.App.DeleteAsset(ctx, id); err != nil {
		return userError(err)
	}
	fmt.Println("Asset deleted.")
	return nil
}
