package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/contacerta/contacerta/internal/catalog"
	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// CostCentersCmd groups the cost center commands.
type CostCentersCmd struct {
	List CostCentersListCmd `cmd:"" default:"1" help:"List cost centers"`
	Add  CostCentersAddCmd  `cmd:"" help:"Create a cost center"`
	Rm   CostCentersRmCmd   `cmd:"" help:"Delete a cost center (its documents are kept)"`
}

type CostCentersListCmd struct {
	Search string `help:"Match name" short:"s"`
	Kind   string `help:"Filter by kind (MINISTRY, EVENT, GROUP)" enum:",MINISTRY,EVENT,GROUP" default:""`
}

func (c *CostCentersListCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.App.CostCenters.Search(ctx, store.ListCostCentersOptions{Search: c.Search, Kind: models.CostCenterKind(c.Kind)})
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Cost centers of %s:\n", active.Name)
	if len(snap.Items) == 0 {
		fmt.Println("No cost centers found.")
		return nil
	}
	fmt.Printf("%-36s %-9s %s\n", "Cost center ID", "Kind", "Name")
	fmt.Println(strings.Repeat("─", 90))
	for _, cc := range snap.Items {
		fmt.Printf("%-36s %-9s %s\n", cc.ID, cc.Kind, cc.Name)
	}
	return nil
}

type CostCentersAddCmd struct {
	Kind     string `arg:"" help:"MINISTRY, EVENT or GROUP" enum:"MINISTRY,EVENT,GROUP,ministry,event,group"`
	Name     string `help:"Name (EVENT and GROUP)"`
	Ministry string `help:"Ministry id (MINISTRY)"`
}

func (c *CostCentersAddCmd) Run(ctx context.Context, globals *Globals) error {
	env, _, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	ministryID, err := parseOptionalID("ministry", c.Ministry)
	if err != nil {
		return err
	}

	// the draft clears whichever field the kind does not use
	draft := catalog.CostCenterDraft{Name: c.Name, MinistryID: ministryID}
	draft.SetKind(models.CostCenterKind(strings.ToUpper(c.Kind)))
	if ministryID != nil && draft.MinistryID == nil {
		fmt.Println("Ignoring --ministry: only MINISTRY cost centers have one.")
	}

	cc, err := env.App.SaveCostCenter(ctx, draft)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("Created cost center %s (%s)\n", cc.Name, cc.ID)
	return nil
}

type CostCentersRmCmd struct {
	ID  string `arg:"" help:"Cost center id"`
	Yes bool   `help:"Confirm the deletion" short:"y"`
}

func (c *CostCentersRmCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := parseID("cost center", c.ID)
	if err != nil {
		return err
	}
	desc, err := env.App.Catalog.DescribeCostCenterDeletion(env.App.Context(ctx), active.OrgID, id)
	if err != nil {
		return userError(err)
	}
	if err := confirm(desc, c.Yes); err != nil {
		return err
	}
	if err := env.App.DeleteCostCenter(ctx, id); err != nil {
		return userError(err)
	}
	fmt.Println("Cost center deleted.")
	return nil
}
