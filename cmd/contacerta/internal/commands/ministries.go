package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// MinistriesCmd groups the ministry commands.
type MinistriesCmd struct {
	List MinistriesListCmd `cmd:"" default:"1" help:"List ministries"`
	Add  MinistriesAddCmd  `cmd:"" help:"Create a ministry"`
	Rm   MinistriesRmCmd   `cmd:"" help:"Delete a ministry"`
}

type MinistriesListCmd struct {
	Search     string `help:"Match name" short:"s"`
	ActiveOnly bool   `help:"Only active ministries"`
}

func (c *MinistriesListCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.App.Ministries.Search(ctx, store.ListMinistriesOptions{Search: c.Search, ActiveOnly: c.ActiveOnly})
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Ministries of %s:\n", active.Name)
	if len(snap.Items) == 0 {
		fmt.Println("No ministries found.")
		return nil
	}
	fmt.Printf("%-36s %-32s %-6s %s\n", "Ministry ID", "Name", "Active", "Description")
	fmt.Println(strings.Repeat("─", 110))
	for _, m := range snap.Items {
		fmt.Printf("%-36s %-32s %-6t %s\n", m.ID, truncate(m.Name, 32), m.Active, truncate(deref(m.Description), 40))
	}
	return nil
}

type MinistriesAddCmd struct {
	Name        string `arg:"" help:"Name"`
	Description string `help:"Description"`
	Inactive    bool   `help:"Create as inactive"`
}

func (c *MinistriesAddCmd) Run(ctx context.Context, globals *Globals) error {
	env, _, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	m := &models.Ministry{Name: c.Name, Description: optional(c.Description), Active: !c.Inactive}
	if err := env.App.SaveMinistry(ctx, m); err != nil {
		return userError(err)
	}
	fmt.Printf("Created ministry %s (%s)\n", m.Name, m.ID)
	return nil
}

type MinistriesRmCmd struct {
	ID  string `arg:"" help:"Ministry id"`
	Yes bool   `help:"Confirm the deletion" short:"y"`
}

func (c *MinistriesRmCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := parseID("ministry", c.ID)
	if err != nil {
		return err
	}
	desc, err := env.App.Catalog.DescribeMinistryDeletion(env.App.Context(ctx), active.OrgID, id)
	if err != nil {
		return userError(err)
	}
	if err := confirm(desc, c.Yes); err != nil {
		return err
	}
	if err := env.App.DeleteMinistry(ctx, id); err != nil {
		return userError(err)
	}
	fmt.Println("Ministry deleted.")
	return nil
}
