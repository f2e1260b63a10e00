package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/contacerta/contacerta/internal/models"
	"github.com/contacerta/contacerta/internal/store"
)

// CategoriesCmd groups the category commands.
type CategoriesCmd struct {
	List CategoriesListCmd `cmd:"" default:"1" help:"List categories"`
	Add  CategoriesAddCmd  `cmd:"" help:"Create a category"`
	Seed CategoriesSeedCmd `cmd:"" help:"Create the default payable and receivable categories"`
	Rm   CategoriesRmCmd   `cmd:"" help:"Delete a category"`
}

type CategoriesListCmd struct {
	Scope string `help:"Filter by scope (FINANCE, SUPPLIER, ASSET)" enum:",FINANCE,SUPPLIER,ASSET" default:""`
	Kind  string `help:"Filter finance categories by kind (INCOME, EXPENSE)" enum:",INCOME,EXPENSE" default:""`
}

func (c *CategoriesListCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	snap, err := env.App.Categories.Search(ctx, store.ListCategoriesOptions{
		Scope:       models.CategoryScope(c.Scope),
		FinanceKind: models.FinanceKind(c.Kind),
	})
	if err != nil {
		return userError(err)
	}

	fmt.Printf("Categories of %s:\n", active.Name)
	if len(snap.Items) == 0 {
		fmt.Println("No categories found. Run 'contacerta categories seed' for the defaults.")
		return nil
	}
	fmt.Printf("%-36s %-8s %-7s %s\n", "Category ID", "Scope", "Kind", "Name")
	fmt.Println(strings.Repeat("─", 90))
	for _, cat := range snap.Items {
		kind := ""
		if cat.FinanceKind != nil {
			kind = string(*cat.FinanceKind)
		}
		fmt.Printf("%-36s %-8s %-7s %s\n", cat.ID, cat.Scope, kind, cat.Name)
	}
	return nil
}

type CategoriesAddCmd struct {
	Name  string `arg:"" help:"Name"`
	Scope string `help:"FINANCE, SUPPLIER or ASSET" enum:"FINANCE,SUPPLIER,ASSET" default:"FINANCE"`
	Kind  string `help:"INCOME or EXPENSE (finance categories only)" enum:",INCOME,EXPENSE" default:""`
}

func (c *CategoriesAddCmd) Run(ctx context.Context, globals *Globals) error {
	env, _, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	cat := &models.Category{Name: c.Name, Scope: models.CategoryScope(c.Scope)}
	if c.Kind != "" {
		kind := models.FinanceKind(c.Kind)
		cat.FinanceKind = &kind
	}
	if err := env.App.CreateCategory(ctx, cat); err != nil {
		return userError(err)
	}
	fmt.Printf("Created category %s (%s)\n", cat.Name, cat.ID)
	return nil
}

type CategoriesSeedCmd struct{}

func (c *CategoriesSeedCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	n, err := env.App.SeedCategories(ctx)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("Created %d categories in %s.\n", n, active.Name)
	return nil
}

type CategoriesRmCmd struct {
	ID  string `arg:"" help:"Category id"`
	Yes bool   `help:"Confirm the deletion" short:"y"`
}

func (c *CategoriesRmCmd) Run(ctx context.Context, globals *Globals) error {
	env, active, err := globals.openOrg(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	id, err := parseID("category", c.ID)
	if err != nil {
		return err
	}
	desc, err := env.App.Catalog.DescribeCategoryDeletion(env.App.Context(ctx), active.OrgID, id)
	if err != nil {
		return userError(err)
	}
	if err := confirm(desc, c.Yes); err != nil {
		return err
	}
	if err := env.App.DeleteCategory(ctx, id); err != nil {
		return userError(err)
	}
	fmt.Println("Category deleted.")
	return nil
}
